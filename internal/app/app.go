// Package app wires configuration into the discovery and retrieval
// pipelines and manages their lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-makers/scrollgrab/internal/auth"
	"github.com/law-makers/scrollgrab/internal/config"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/engine"
	"github.com/law-makers/scrollgrab/internal/proxy"
	"github.com/law-makers/scrollgrab/internal/ratelimit"
	"github.com/law-makers/scrollgrab/internal/report"
	"github.com/law-makers/scrollgrab/internal/reqctx"
	"github.com/law-makers/scrollgrab/internal/retrieval"
	"github.com/law-makers/scrollgrab/internal/utils/headers"
	"github.com/law-makers/scrollgrab/pkg/models"
)

// Application holds the dependencies shared by the CLI commands.
//
// It is created once per command invocation. Use Close() to release the
// log file and pooled connections.
type Application struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Session   *auth.SessionData
	Headers   map[string]string
	Fetcher   *retrieval.Fetcher
	Scheduler *retrieval.Scheduler

	kind      discovery.Kind
	logCloser io.Closer
	startTime time.Time
}

// Options customizes New; the zero value uses the process defaults
type Options struct {
	// Store overrides where sessions are loaded from
	Store auth.Store
	// Stderr overrides the console log destination
	Stderr io.Writer
	// Transport overrides the download transport (tests)
	Transport http.RoundTripper
}

// New creates an Application from cfg.
//
// It performs the following initialization steps:
//   - Configures logging (console level plus optional rotating file)
//   - Loads the saved login session, if one is named
//   - Parses custom headers and proxies
//   - Builds the rate-limited, cookie-aware fetcher and the scheduler
func New(ctx context.Context, cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	logger, closer, err := NewLogger(cfg, opts.Stderr)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeConfig, "failed to open log file", err).
			WithDetail("path", cfg.LogFile)
	}

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		logCloser: closer,
		startTime: time.Now(),
	}
	if err := a.init(opts); err != nil {
		closer.Close()
		return nil, err
	}

	logger.Debug().
		Str("engine", cfg.Engine).
		Str("kind", string(a.kind)).
		Int("concurrency", cfg.Concurrency).
		Bool("sequential", cfg.Sequential).
		Msg("Application initialized")
	return a, nil
}

func (a *Application) init(opts Options) error {
	cfg := a.Config

	kind, err := discovery.ParseKind(cfg.Kind)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeConfig, "invalid media kind", err)
	}
	a.kind = kind

	if cfg.Session != "" {
		store := opts.Store
		if store == nil {
			store = auth.DefaultStore()
		}
		session, err := auth.LoadValid(store, cfg.Session)
		if err != nil {
			return models.NewPipelineError(models.ErrCodeConfig, "failed to load session", err).
				WithDetail("session", cfg.Session)
		}
		a.Session = session
		a.Logger.Info().
			Str("session", session.Name).
			Int("cookies", len(session.Cookies)).
			Msg("Loaded session")
	}

	custom, err := headers.Parse(cfg.Headers)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeConfig, "invalid header", err)
	}
	var sessionHeaders map[string]string
	if a.Session != nil {
		sessionHeaders = a.Session.Headers
	}
	a.Headers = headers.Merge(sessionHeaders, custom)

	var proxies *proxy.Rotator
	if len(cfg.Proxies) > 0 {
		proxies, err = proxy.Parse(cfg.Proxies)
		if err != nil {
			return models.NewPipelineError(models.ErrCodeConfig, "invalid proxy", err)
		}
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateBurst)
	}

	jar, err := auth.NewJar(a.Session)
	if err != nil {
		return err
	}

	a.Fetcher = retrieval.NewFetcher(retrieval.FetcherOptions{
		UserAgent: cfg.UserAgent,
		Headers:   a.Headers,
		Limiter:   limiter,
		Proxies:   proxies,
		Jar:       jar,
		Transport: opts.Transport,
	})
	a.Scheduler = retrieval.NewScheduler(a.Fetcher, a.Logger)
	return nil
}

// Discover opens the target in a browser and scrolls it until no new
// content appears, returning the asset URLs in discovery order. The list is
// also persisted to the configured URL list file.
func (a *Application) Discover(ctx context.Context, onStep func(discovery.StepEvent)) ([]string, discovery.Stats, error) {
	cfg := a.Config
	logger := reqctx.Logger(ctx, a.Logger)

	page, err := engine.Launch(ctx, cfg.Engine, a.engineOptions(logger))
	if err != nil {
		return nil, discovery.Stats{}, err
	}
	defer page.Close()

	coordinator := discovery.NewCoordinator(a.discoveryOptions(onStep), logger)
	urls, err := coordinator.Discover(ctx, page)
	return urls, coordinator.Stats(), err
}

func (a *Application) engineOptions(logger zerolog.Logger) engine.Options {
	cfg := a.Config
	opts := engine.Options{
		Headless:   cfg.Headless,
		UserAgent:  cfg.UserAgent,
		ChromePath: cfg.ChromePath,
		Headers:    a.Headers,
		Logger:     logger,
	}
	// The browser takes a single proxy; rotation only applies to downloads
	if len(cfg.Proxies) > 0 {
		opts.Proxy = cfg.Proxies[0]
	}
	if a.Session != nil {
		opts.Cookies = a.Session.Cookies
	}
	return opts
}

func (a *Application) discoveryOptions(onStep func(discovery.StepEvent)) discovery.Options {
	cfg := a.Config

	// User supplied selectors are more specific than the built-in guesses
	var probes []discovery.Probe
	for _, sel := range cfg.Dismiss {
		probes = append(probes, discovery.SelectorProbe("dismiss "+sel, discovery.CSS(sel)))
	}
	probes = append(probes, discovery.DefaultProbes()...)

	return discovery.Options{
		TargetURL:        cfg.TargetURL,
		SettleInterval:   cfg.Settle,
		MaxSteps:         cfg.MaxSteps,
		RequiredRepeats:  cfg.Repeats,
		PageLoadTimeout:  cfg.PageTimeout,
		ProbeTimeout:     cfg.ProbeTimeout,
		ExtendScript:     cfg.ExtendScript,
		MeasureScript:    cfg.MeasureScript,
		Probes:           probes,
		Signatures:       discovery.SignaturesFor(a.kind),
		Tags:             discovery.Tags(a.kind),
		ScanEmbeddedJSON: cfg.ScanJSON,
		URLListPath:      cfg.URLList,
		OnStep:           onStep,
	}
}

// RetrieveHooks observe a Retrieve call
type RetrieveHooks struct {
	// Target is recorded in the run summary (empty for list input)
	Target string
	// Discovered is the size of the discovered set, when known
	Discovered int

	OnItem       func(models.ItemResult)
	ByteProgress func(url string, size int64) io.Writer
}

// Retrieve downloads urls into the output folder and returns the run
// summary. Configured reports are written even when ctx was cancelled, so
// an interrupted run still leaves a record.
func (a *Application) Retrieve(ctx context.Context, urls []string, hooks RetrieveHooks) (*models.Run, error) {
	cfg := a.Config
	logger := reqctx.Logger(ctx, a.Logger)

	discovered := hooks.Discovered
	if discovered == 0 {
		discovered = len(urls)
	}
	run := &models.Run{
		ID:         reqctx.Run(ctx).RunID,
		TargetURL:  hooks.Target,
		OutputDir:  cfg.OutputDir,
		Discovered: discovered,
		StartedAt:  time.Now(),
	}

	opts := retrieval.Options{
		Concurrency:    cfg.Concurrency,
		Dest:           cfg.OutputDir,
		PerItemTimeout: cfg.FetchTimeout,
		Sequential:     cfg.Sequential,
		Prefix:         cfg.Prefix,
		FallbackExt:    FallbackExt(a.kind),
		OnItem: func(item models.ItemResult) {
			run.Items = append(run.Items, item)
			if hooks.OnItem != nil {
				hooks.OnItem(item)
			}
		},
		ByteProgress: hooks.ByteProgress,
	}

	tally, err := a.Scheduler.Retrieve(ctx, urls, opts)
	run.Tally = tally
	run.FinishedAt = time.Now()

	if len(cfg.Reports) > 0 {
		paths, rerr := report.WriteFiles(run, cfg.Reports, cfg.OutputDir)
		for _, p := range paths {
			logger.Info().Str("file", p).Msg("Report written")
		}
		if rerr != nil {
			logger.Warn().Err(rerr).Msg("Failed to write report")
		}
	}
	return run, err
}

// FallbackExt is the file extension used when a URL's path has none we know
func FallbackExt(kind discovery.Kind) string {
	switch kind {
	case discovery.KindImage:
		return "jpg"
	case discovery.KindAudio:
		return "mp3"
	default:
		return retrieval.DefaultFallbackExt
	}
}

// Close releases pooled connections and flushes the log file.
// A context with a timeout should be provided to bound shutdown.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Shutting down application")

	if a.Fetcher != nil {
		a.Fetcher.CloseIdleConnections()
	}
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
