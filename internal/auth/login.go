package auth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// DefaultLoginTimeout bounds the whole interactive login
const DefaultLoginTimeout = 5 * time.Minute

// LoginOptions configures the interactive login behavior
type LoginOptions struct {
	// SessionName is the name to save the session as
	SessionName string
	// URL to navigate to for login
	URL string
	// WaitSelector is the CSS selector that appears once logged in (e.g., "#feed")
	WaitSelector string
	Timeout      time.Duration
	Headers      map[string]string
	// ChromePath overrides the browser binary; empty lets chromedp search
	ChromePath string
	// RemoteDebuggingPort enables Chrome DevTools on this port (e.g., 9222)
	RemoteDebuggingPort int
	// Prompt receives user-facing instructions
	Prompt io.Writer
	// Confirm is read for the Enter press when no WaitSelector is given
	Confirm io.Reader
}

// InteractiveLogin launches a visible browser, lets the user log in by hand
// and captures the resulting cookies as a session.
func InteractiveLogin(ctx context.Context, opts LoginOptions, logger zerolog.Logger) (*SessionData, error) {
	if opts.SessionName == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultLoginTimeout
	}
	if opts.Prompt == nil {
		opts.Prompt = os.Stdout
	}
	if opts.Confirm == nil {
		opts.Confirm = os.Stdin
	}

	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" && opts.RemoteDebuggingPort == 0 {
		return nil, fmt.Errorf("interactive login requires a display server (DISPLAY not set)\n\n" +
			"💡 In headless environments (Codespaces, cloud IDEs), use:\n" +
			"   scrollgrab sessions import <name> --url=<url>\n\n" +
			"   or pass --remote-debug=<port> to drive the browser from your local Chrome.")
	}

	logger.Info().
		Str("session", opts.SessionName).
		Str("url", opts.URL).
		Msg("Starting interactive login")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("headless", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(1280, 720),
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	if opts.RemoteDebuggingPort > 0 {
		port := strconv.Itoa(opts.RemoteDebuggingPort)
		allocOpts = append(allocOpts,
			chromedp.Flag("remote-debugging-port", port),
			chromedp.Flag("remote-debugging-address", "0.0.0.0"),
		)
		logger.Info().Int("port", opts.RemoteDebuggingPort).Msg("Remote debugging enabled")
		fmt.Fprintf(opts.Prompt, "\n🔧 Remote debugging enabled on port %d\n", opts.RemoteDebuggingPort)
		fmt.Fprintf(opts.Prompt, "   1. Forward port %d to your machine\n", opts.RemoteDebuggingPort)
		fmt.Fprintf(opts.Prompt, "   2. Open chrome://inspect in your LOCAL Chrome\n")
		fmt.Fprintf(opts.Prompt, "   3. Configure target: localhost:%d and click 'inspect'\n", opts.RemoteDebuggingPort)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		logger.Debug().Msgf(format, args...)
	}))
	defer browserCancel()

	fmt.Fprintln(opts.Prompt, "\n🌐 Browser opened. Please complete the login process manually.")

	if err := chromedp.Run(browserCtx, network.Enable(), chromedp.Navigate(opts.URL)); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if opts.WaitSelector != "" {
		logger.Info().Str("selector", opts.WaitSelector).Msg("Waiting for login completion")
		fmt.Fprintf(opts.Prompt, "   Waiting for element: %s\n", opts.WaitSelector)
		if err := chromedp.Run(browserCtx, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("login timeout or failed: %w", err)
		}
	} else {
		fmt.Fprintln(opts.Prompt, "\n   Press Enter once you have completed login...")
		if err := waitForEnter(ctx, opts.Confirm); err != nil {
			return nil, fmt.Errorf("login timeout or failed: %w", err)
		}
	}

	var cookies []*network.Cookie
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found - login may have failed")
	}

	logger.Info().Int("cookie_count", len(cookies)).Msg("Cookies extracted")
	fmt.Fprintf(opts.Prompt, "\n✓ Successfully captured %d cookies\n", len(cookies))

	session := &SessionData{
		Name:      opts.SessionName,
		URL:       opts.URL,
		Cookies:   fromNetworkCookies(cookies),
		Headers:   opts.Headers,
		CreatedAt: time.Now(),
	}
	session.SetExpiryFromCookies()
	return session, nil
}

func fromNetworkCookies(cookies []*network.Cookie) []Cookie {
	out := make([]Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
	}
	return out
}

// waitForEnter reads one line from r, giving up when ctx ends
func waitForEnter(ctx context.Context, r io.Reader) error {
	done := make(chan struct{})
	go func() {
		var discard string
		fmt.Fscanln(r, &discard)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
