package config

import "github.com/spf13/cobra"

// RegisterFlags registers the flags shared by every command on the root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	f := cmd.PersistentFlags()
	f.BoolP("verbose", "v", false, "Enable debug logging")
	f.BoolP("quiet", "q", false, "Suppress all output except errors")
	f.Bool("json", false, "Emit logs as JSON lines")
	f.String("log-file", "", "Also write debug logs to this file (rotated)")
	f.String("config", "", "Path to configuration file (yaml, toml or json)")
	f.StringP("output", "o", DefaultOutputDir, "Destination folder")
	f.String("user-agent", DefaultUserAgent, "User agent for the browser and downloads")
	f.StringSlice("proxy", nil, "HTTP/SOCKS5 proxies, comma separated (rotated per request)")
	f.StringArrayP("header", "H", nil, "Custom header (e.g., -H \"Referer: https://example.com\")")
}

// RegisterSessionFlag registers --session on commands that can act as a
// logged-in user
func RegisterSessionFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("session", "s", "", "Use a saved login session")
}

// RegisterDiscoveryFlags registers the flags that tune the scroll-and-harvest loop
func RegisterDiscoveryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("engine", DefaultEngine, "Browser engine (chromedp or rod)")
	f.Bool("headless", DefaultHeadless, "Run the browser without a window")
	f.String("chrome-path", "", "Path to the Chrome/Chromium binary")
	f.Duration("settle", DefaultSettle, "Wait after each scroll step")
	f.Int("max-steps", DefaultMaxSteps, "Maximum number of scroll steps")
	f.Int("repeats", DefaultRepeats, "Unchanged measurements in a row that end scrolling")
	f.Duration("page-timeout", DefaultPageTimeout, "Timeout for the initial page load")
	f.Duration("probe-timeout", DefaultProbeTimeout, "Timeout for each overlay dismissal attempt")
	f.String("kind", DefaultKind, "Media kind to collect (video, image, audio, all)")
	f.StringArray("dismiss", nil, "Extra CSS selector to click away an overlay (repeatable)")
	f.String("extend-script", "", "JavaScript run to load more content (default scrolls to the end)")
	f.String("measure-script", "", "JavaScript expression measuring content size (default document.body.scrollHeight)")
	f.Bool("scan-json", DefaultScanJSON, "Also harvest URLs from embedded JSON state")
	f.String("url-list", "", "URL list file (default <output>/"+DefaultURLListName+")")
}

// RegisterRetrievalFlags registers the flags that tune downloading
func RegisterRetrievalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("concurrency", "c", DefaultConcurrency, "Maximum concurrent downloads (1-50)")
	f.Bool("sequential", false, "Download one file at a time in list order")
	f.Duration("fetch-timeout", DefaultFetchTimeout, "Timeout for each download")
	f.String("prefix", DefaultPrefix, "Filename prefix")
	f.Float64("rate", DefaultRateLimitRPS, "Requests per second per host (0 disables)")
	f.Int("burst", DefaultRateLimitBurst, "Request burst per host")
	f.StringSlice("report", nil, "Write a run report (json, csv, md, html)")
}
