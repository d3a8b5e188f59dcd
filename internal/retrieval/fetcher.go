package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/law-makers/scrollgrab/internal/proxy"
	"github.com/law-makers/scrollgrab/internal/ratelimit"
	"github.com/rs/zerolog"
)

// copyBufferSize is the chunk size bodies are streamed to disk with
const copyBufferSize = 32 * 1024

// DefaultUserAgent is a desktop Chrome UA; media CDNs often reject unknown agents
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	UserAgent string
	Headers   map[string]string
	Limiter   ratelimit.Limiter
	Proxies   *proxy.Rotator
	Jar       http.CookieJar

	// Transport overrides the default transport (tests)
	Transport http.RoundTripper
}

// Fetcher streams a single URL to a file
type Fetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	limiter   ratelimit.Limiter
	proxies   *proxy.Rotator
}

// NewFetcher creates a Fetcher. Per-item deadlines come from the context,
// so the client itself has no timeout.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}

	transport := opts.Transport
	if transport == nil {
		t := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 15 * time.Second,
		}
		if opts.Proxies != nil && opts.Proxies.Len() > 0 {
			t.Proxy = opts.Proxies.ProxyFunc()
		}
		transport = t
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Jar:       opts.Jar,
		},
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		limiter:   opts.Limiter,
		proxies:   opts.Proxies,
	}
}

// CloseIdleConnections releases pooled connections
func (f *Fetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}

// ProgressFunc returns a writer that observes body bytes as they are
// written; size is the declared length or -1. It may return nil.
type ProgressFunc func(size int64) io.Writer

// Fetch downloads rawURL into path and returns the number of bytes written.
// A partially written file is left in place on failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, path string, progress ProgressFunc, logger zerolog.Logger) (int64, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return 0, classifyNetError(rawURL, err)
	}

	ctx, choice := proxy.WithChoice(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, classifyNetError(rawURL, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if f.proxies != nil && !isTimeout(err) {
			f.proxies.MarkFailed(choice.URL())
		}
		return 0, classifyNetError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, newStatusError(rawURL, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, newFilesystemError(path, err)
	}

	tracked := &trackedWriter{w: out}
	var dst io.Writer = tracked
	if progress != nil {
		if pw := progress(resp.ContentLength); pw != nil {
			dst = io.MultiWriter(tracked, pw)
		}
	}

	written, copyErr := io.CopyBuffer(dst, resp.Body, make([]byte, copyBufferSize))
	closeErr := out.Close()

	if copyErr != nil {
		if tracked.err != nil {
			return written, newFilesystemError(path, tracked.err)
		}
		return written, classifyNetError(rawURL, copyErr)
	}
	if closeErr != nil {
		return written, newFilesystemError(path, closeErr)
	}

	logger.Debug().
		Str("url", rawURL).
		Str("file", path).
		Int64("bytes", written).
		Msg("Download completed")

	return written, nil
}

// trackedWriter remembers write errors so they can be told apart from body
// read errors after io.Copy returns
type trackedWriter struct {
	w   io.Writer
	err error
}

func (t *trackedWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
