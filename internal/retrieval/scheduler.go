// Package retrieval downloads discovered asset URLs into a folder, either
// one at a time or through a fixed pool of workers.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/reqctx"
	"github.com/law-makers/scrollgrab/pkg/models"
	"github.com/rs/zerolog"
)

const (
	DefaultConcurrency    = 5
	MaxConcurrency        = 50
	DefaultPerItemTimeout = 60 * time.Second
)

// Options configures a Retrieve call
type Options struct {
	Concurrency    int
	Dest           string
	PerItemTimeout time.Duration
	Sequential     bool
	Prefix         string
	FallbackExt    string

	// OnItem receives every processed item. Calls are serialized.
	OnItem func(models.ItemResult)

	// ByteProgress, when set, observes the body of each fetched URL
	ByteProgress func(url string, size int64) io.Writer
}

// Scheduler runs retrieval jobs
type Scheduler struct {
	fetcher *Fetcher
	logger  zerolog.Logger
}

// NewScheduler creates a Scheduler around fetcher
func NewScheduler(fetcher *Fetcher, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "retrieval").Logger(),
	}
}

// Retrieve processes urls and returns the outcome tally. Each processed URL
// lands in exactly one bucket. When ctx is cancelled no further URLs are
// started; those already in flight run to completion under their own
// timeout, and ctx.Err() is returned with the tally so far.
func (s *Scheduler) Retrieve(ctx context.Context, urls []string, opts Options) (models.Tally, error) {
	opts = withDefaults(opts)
	tally := &tallyCounter{}

	if len(urls) == 0 {
		return tally.snapshot(), nil
	}

	// Duplicates would derive the same file and race on it
	set := discovery.NewAssetSet()
	for _, u := range urls {
		set.Add(u)
	}
	if dropped := len(urls) - set.Len(); dropped > 0 {
		s.logger.Debug().Int("duplicates", dropped).Msg("Dropped duplicate URLs")
	}
	urls = set.Values()

	if err := os.MkdirAll(opts.Dest, 0755); err != nil {
		return tally.snapshot(), newFilesystemError(opts.Dest, fmt.Errorf("failed to create output directory: %w", err))
	}

	var mu sync.Mutex
	report := func(r models.ItemResult) {
		if opts.OnItem == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		opts.OnItem(r)
	}

	if opts.Sequential {
		for _, u := range urls {
			if ctx.Err() != nil {
				break
			}
			report(s.process(ctx, u, opts, tally))
		}
		return tally.snapshot(), ctx.Err()
	}

	workers := opts.Concurrency
	if workers > len(urls) {
		workers = len(urls)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go s.worker(ctx, w, jobs, opts, tally, report, &wg)
	}

	// Feed jobs until done or cancelled
	go func() {
		defer close(jobs)
		for _, u := range urls {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	return tally.snapshot(), ctx.Err()
}

// worker processes jobs until the channel closes
func (s *Scheduler) worker(ctx context.Context, id int, jobs <-chan string, opts Options, tally *tallyCounter, report func(models.ItemResult), wg *sync.WaitGroup) {
	defer wg.Done()

	s.logger.Debug().Int("worker_id", id).Msg("Worker started")
	for u := range jobs {
		report(s.process(ctx, u, opts, tally))
	}
	s.logger.Debug().Int("worker_id", id).Msg("Worker finished")
}

// process handles one URL: derive its name, skip if present, else fetch
func (s *Scheduler) process(ctx context.Context, rawURL string, opts Options, tally *tallyCounter) models.ItemResult {
	// In-flight items outlive cancellation; the per-item timeout still applies
	itemCtx := reqctx.WithItem(context.WithoutCancel(ctx), rawURL)
	logger := reqctx.Logger(itemCtx, s.logger)

	result := models.ItemResult{
		ID:       reqctx.Item(itemCtx).ItemID,
		URL:      rawURL,
		FilePath: filepath.Join(opts.Dest, DeriveFilename(rawURL, opts.Prefix, opts.FallbackExt)),
		State:    models.StatePending,
		Started:  time.Now(),
	}

	if _, err := os.Stat(result.FilePath); err == nil {
		result.State = models.StateSkipped
		tally.record(result.State)
		logger.Debug().Str("url", rawURL).Str("file", result.FilePath).Msg("Already downloaded")
		return result
	}

	fetchCtx, cancel := context.WithTimeout(itemCtx, opts.PerItemTimeout)
	defer cancel()

	var progress ProgressFunc
	if opts.ByteProgress != nil {
		progress = func(size int64) io.Writer { return opts.ByteProgress(rawURL, size) }
	}

	size, err := s.fetcher.Fetch(fetchCtx, rawURL, result.FilePath, progress, logger)
	result.Size = size
	result.Duration = time.Since(result.Started)

	if err != nil {
		result.State = models.StateFailed
		result.Error = reqctx.NewItemError(itemCtx, err)
		tally.record(result.State)
		logger.Warn().
			Err(err).
			Str("url", rawURL).
			Str("code", string(models.CodeOf(err))).
			Msg("Download failed")
		return result
	}

	result.State = models.StateSucceeded
	tally.record(result.State)
	logger.Info().
		Str("url", rawURL).
		Str("file", result.FilePath).
		Int64("bytes", size).
		Dur("duration", result.Duration).
		Msg("Downloaded")
	return result
}

func withDefaults(opts Options) Options {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Concurrency > MaxConcurrency {
		opts.Concurrency = MaxConcurrency
	}
	if opts.PerItemTimeout <= 0 {
		opts.PerItemTimeout = DefaultPerItemTimeout
	}
	if opts.Dest == "" {
		opts.Dest = "downloads"
	}
	return opts
}

// IsCancelled reports whether err from Retrieve only signals cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
