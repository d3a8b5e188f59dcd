package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/law-makers/scrollgrab/pkg/models"
)

// Config holds application configuration values
type Config struct {
	// Logging
	Verbose bool
	Quiet   bool
	JSONLog bool
	LogFile string

	// Discovery
	TargetURL     string
	Engine        string
	Headless      bool
	ChromePath    string
	Settle        time.Duration
	MaxSteps      int
	Repeats       int
	PageTimeout   time.Duration
	ProbeTimeout  time.Duration
	Kind          string
	Dismiss       []string
	ExtendScript  string
	MeasureScript string
	ScanJSON      bool
	URLList       string

	// Retrieval
	OutputDir    string
	Concurrency  int
	Sequential   bool
	FetchTimeout time.Duration
	Prefix       string
	RateLimitRPS float64
	RateBurst    int
	Reports      []string

	// Identity
	UserAgent string
	Proxies   []string
	Headers   []string
	Session   string

	// ConfigFile is the file that was read, if any
	ConfigFile string
}

// Load builds a Config by combining defaults, an optional config file,
// SCROLLGRAB_* environment variables and the flags set on cmd, in that
// order of precedence. The target URL comes from args when given.
func Load(cmd *cobra.Command, args []string) (*Config, error) {
	configPath := ""
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			configPath = f.Value.String()
		}
	}

	v, err := newViper(configPath)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfig, "failed to read config file", err).
			WithDetail("path", configPath)
	}

	if cmd != nil {
		for _, key := range keys {
			if f := cmd.Flags().Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
				}
			}
		}
	}

	cfg := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		JSONLog: v.GetBool("json"),
		LogFile: v.GetString("log-file"),

		TargetURL:     v.GetString("target-url"),
		Engine:        strings.ToLower(v.GetString("engine")),
		Headless:      v.GetBool("headless"),
		ChromePath:    v.GetString("chrome-path"),
		Settle:        v.GetDuration("settle"),
		MaxSteps:      v.GetInt("max-steps"),
		Repeats:       v.GetInt("repeats"),
		PageTimeout:   v.GetDuration("page-timeout"),
		ProbeTimeout:  v.GetDuration("probe-timeout"),
		Kind:          strings.ToLower(v.GetString("kind")),
		Dismiss:       stringList(cmd, v, "dismiss"),
		ExtendScript:  v.GetString("extend-script"),
		MeasureScript: v.GetString("measure-script"),
		ScanJSON:      v.GetBool("scan-json"),
		URLList:       v.GetString("url-list"),

		OutputDir:    v.GetString("output"),
		Concurrency:  v.GetInt("concurrency"),
		Sequential:   v.GetBool("sequential"),
		FetchTimeout: v.GetDuration("fetch-timeout"),
		Prefix:       v.GetString("prefix"),
		RateLimitRPS: v.GetFloat64("rate"),
		RateBurst:    v.GetInt("burst"),
		Reports:      splitCommas(stringList(cmd, v, "report")),

		UserAgent: v.GetString("user-agent"),
		Proxies:   splitCommas(stringList(cmd, v, "proxy")),
		Headers:   stringList(cmd, v, "header"),
		Session:   v.GetString("session"),

		ConfigFile: v.ConfigFileUsed(),
	}

	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		cfg.TargetURL = strings.TrimSpace(args[0])
	}
	if cfg.URLList == "" {
		cfg.URLList = filepath.Join(cfg.OutputDir, DefaultURLListName)
	}
	for i, r := range cfg.Reports {
		cfg.Reports[i] = strings.ToLower(r)
	}

	if err := validate(cfg); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfig, "invalid config", err)
	}

	return cfg, nil
}

// stringList reads a repeatable option. Flags set on the command line are
// read directly so values containing commas survive intact.
func stringList(cmd *cobra.Command, v *viper.Viper, key string) []string {
	if cmd != nil {
		if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
			switch f.Value.Type() {
			case "stringArray":
				vals, _ := cmd.Flags().GetStringArray(key)
				return vals
			case "stringSlice":
				vals, _ := cmd.Flags().GetStringSlice(key)
				return vals
			}
		}
	}
	return v.GetStringSlice(key)
}

// splitCommas flattens "a,b" entries (environment values arrive as one string)
func splitCommas(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
