package discovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Probe is one candidate way of dismissing an interstitial overlay.
// Match reports whether the overlay variant is present; Apply dismisses it.
type Probe struct {
	Name  string
	Match func(ctx context.Context, page RenderedPage) (bool, error)
	Apply func(ctx context.Context, page RenderedPage) error
}

// SelectorProbe matches when sel finds at least one element and applies a click on it
func SelectorProbe(name string, sel Selector) Probe {
	return Probe{
		Name: name,
		Match: func(ctx context.Context, page RenderedPage) (bool, error) {
			n, err := page.Count(ctx, sel)
			if err != nil {
				return false, err
			}
			return n > 0, nil
		},
		Apply: func(ctx context.Context, page RenderedPage) error {
			return page.Click(ctx, sel)
		},
	}
}

// DefaultProbes returns the built-in overlay candidates, tried in order
func DefaultProbes() []Probe {
	return []Probe{
		SelectorProbe("text", XPath(`//*[normalize-space(text())='Look around a bit']`)),
		SelectorProbe("button-text", XPath(`//button[contains(normalize-space(.), 'Look around a bit')]`)),
		SelectorProbe("aria-label", CSS(`[aria-label*='Look around']`)),
		SelectorProbe("button-text-ci", XPath(`//button[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'look around')]`)),
	}
}

// DismissOverlay tries each probe in order under a per-attempt timeout and
// applies the first one that matches and succeeds. It returns the name of the
// applied probe. Finding no overlay is not an error.
func DismissOverlay(ctx context.Context, page RenderedPage, probes []Probe, perAttempt time.Duration, logger zerolog.Logger) (string, bool) {
	for _, probe := range probes {
		if ctx.Err() != nil {
			return "", false
		}

		applied, err := tryProbe(ctx, page, probe, perAttempt)
		if err != nil {
			logger.Debug().Err(err).Str("probe", probe.Name).Msg("Overlay probe failed")
			continue
		}
		if applied {
			logger.Info().Str("probe", probe.Name).Msg("Overlay dismissed")
			return probe.Name, true
		}
	}

	logger.Debug().Msg("No overlay found")
	return "", false
}

func tryProbe(ctx context.Context, page RenderedPage, probe Probe, perAttempt time.Duration) (bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, perAttempt)
	defer cancel()

	matched, err := probe.Match(attemptCtx, page)
	if err != nil || !matched {
		return false, err
	}
	if err := probe.Apply(attemptCtx, page); err != nil {
		return false, err
	}
	return true, nil
}
