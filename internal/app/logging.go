package app

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/law-makers/scrollgrab/internal/config"
)

// Log file rotation settings
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// ConsoleLevel maps the verbosity flags to the console log level. The
// default is warn so progress bars stay readable.
func ConsoleLevel(cfg *config.Config) zerolog.Level {
	switch {
	case cfg.Verbose:
		return zerolog.DebugLevel
	case cfg.Quiet:
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// levelWriter passes through events at or above min
type levelWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (lw levelWriter) Write(p []byte) (int, error) {
	return lw.w.Write(p)
}

func (lw levelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < lw.min {
		return len(p), nil
	}
	return lw.w.Write(p)
}

// NewLogger builds the process logger: console (or JSON lines) on stderr at
// the verbosity level, plus a rotating debug-level file when --log-file is
// set. It also installs the logger as zerolog's global. The returned closer
// flushes the log file.
func NewLogger(cfg *config.Config, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	var console io.Writer = stderr
	if !cfg.JSONLog {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	}
	consoleLevel := ConsoleLevel(cfg)

	writers := []io.Writer{levelWriter{w: console, min: consoleLevel}}
	globalLevel := consoleLevel
	var closer io.Closer = nopCloser{}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, levelWriter{w: file, min: zerolog.DebugLevel})
		globalLevel = zerolog.DebugLevel
		closer = file
	}

	zerolog.SetGlobalLevel(globalLevel)
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("console_level", consoleLevel.String()).
		Bool("json", cfg.JSONLog).
		Str("log_file", cfg.LogFile).
		Msg("Logger initialized")

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
