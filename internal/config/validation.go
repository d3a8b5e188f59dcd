package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/law-makers/scrollgrab/internal/discovery"
	urlutil "github.com/law-makers/scrollgrab/internal/utils/url"
)

func validate(c *Config) error {
	if c.Verbose && c.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	if err := urlutil.ValidateURL(c.TargetURL); err != nil {
		return fmt.Errorf("target %q: %w", c.TargetURL, err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output folder cannot be empty")
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"settle", c.Settle},
		{"page-timeout", c.PageTimeout},
		{"probe-timeout", c.ProbeTimeout},
		{"fetch-timeout", c.FetchTimeout},
	}
	for _, o := range durations {
		if o.d <= 0 {
			return fmt.Errorf("%s must be > 0", o.name)
		}
	}

	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", MaxConcurrency)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("max steps must be >= 1")
	}
	if c.Repeats < 1 {
		return fmt.Errorf("repeats must be >= 1")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate must be >= 0")
	}
	if c.RateLimitRPS > 0 && c.RateBurst < 1 {
		return fmt.Errorf("burst must be >= 1")
	}

	if _, err := discovery.ParseKind(c.Kind); err != nil {
		return err
	}
	if !slices.Contains(KnownEngines, c.Engine) {
		return fmt.Errorf("unknown engine %q (must be one of %v)", c.Engine, KnownEngines)
	}
	for _, r := range c.Reports {
		if !slices.Contains(KnownReports, r) {
			return fmt.Errorf("unknown report format %q (must be one of %v)", r, KnownReports)
		}
	}

	if c.ExtendScript != "" {
		if err := discovery.ValidateScript("extend-script", c.ExtendScript); err != nil {
			return err
		}
	}
	if c.MeasureScript != "" {
		if err := discovery.ValidateScript("measure-script", c.MeasureScript); err != nil {
			return err
		}
	}
	return nil
}
