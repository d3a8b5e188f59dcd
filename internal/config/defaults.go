package config

import "time"

// Default constants for application configuration
const (
	DefaultTargetURL      = "https://www.midjourney.com/explore?tab=video_top"
	DefaultOutputDir      = "downloads"
	DefaultURLListName    = "media_urls.txt"
	DefaultConcurrency    = 5
	MaxConcurrency        = 50
	DefaultSettle         = 2 * time.Second
	DefaultMaxSteps       = 100
	DefaultRepeats        = 3
	DefaultPageTimeout    = 30 * time.Second
	DefaultFetchTimeout   = 60 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
	DefaultKind           = "video"
	DefaultPrefix         = "media"
	DefaultEngine         = "chromedp"
	DefaultHeadless       = true
	DefaultScanJSON       = true
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// EnvPrefix namespaces environment overrides (SCROLLGRAB_OUTPUT, ...)
	EnvPrefix = "SCROLLGRAB"
)

// KnownEngines lists the browser backends shipped with the binary
var KnownEngines = []string{"chromedp", "rod"}

// KnownReports lists the supported run report formats
var KnownReports = []string{"json", "csv", "md", "html"}
