package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// keys are the option names shared by flags, config file entries and
// environment variables (SCROLLGRAB_ plus the key upper-cased, dashes as
// underscores).
var keys = []string{
	"verbose", "quiet", "json", "log-file",
	"target-url", "engine", "headless", "chrome-path",
	"settle", "max-steps", "repeats", "page-timeout", "probe-timeout",
	"kind", "dismiss", "extend-script", "measure-script", "scan-json", "url-list",
	"output", "concurrency", "sequential", "fetch-timeout", "prefix",
	"rate", "burst", "report",
	"user-agent", "proxy", "header", "session",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target-url", DefaultTargetURL)
	v.SetDefault("engine", DefaultEngine)
	v.SetDefault("headless", DefaultHeadless)
	v.SetDefault("settle", DefaultSettle)
	v.SetDefault("max-steps", DefaultMaxSteps)
	v.SetDefault("repeats", DefaultRepeats)
	v.SetDefault("page-timeout", DefaultPageTimeout)
	v.SetDefault("probe-timeout", DefaultProbeTimeout)
	v.SetDefault("kind", DefaultKind)
	v.SetDefault("scan-json", DefaultScanJSON)
	v.SetDefault("output", DefaultOutputDir)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("fetch-timeout", DefaultFetchTimeout)
	v.SetDefault("prefix", DefaultPrefix)
	v.SetDefault("rate", DefaultRateLimitRPS)
	v.SetDefault("burst", DefaultRateLimitBurst)
	v.SetDefault("user-agent", DefaultUserAgent)
}

// newViper prepares a viper instance with defaults, environment lookup and
// the config file. An explicit path must exist; otherwise scrollgrab.yaml
// (or .toml/.json) is searched in the working directory and
// ~/.scrollgrab, and its absence is not an error.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		return v, nil
	}

	v.SetConfigName("scrollgrab")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".scrollgrab"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", v.ConfigFileUsed(), err)
		}
	}
	return v, nil
}
