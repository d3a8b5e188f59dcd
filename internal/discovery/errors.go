package discovery

import (
	"errors"

	"github.com/law-makers/scrollgrab/pkg/models"
)

// Sentinels for errors.Is; PipelineError.Is matches on code
var (
	ErrLoadTimeout = &models.PipelineError{Code: models.ErrCodeLoadTimeout}
	ErrNavigation  = &models.PipelineError{Code: models.ErrCodeNavigation}
	ErrRendering   = &models.PipelineError{Code: models.ErrCodeRendering}
)

// newLoadTimeout reports that the initial page load did not settle in time
func newLoadTimeout(target string, err error) error {
	return models.NewPipelineError(models.ErrCodeLoadTimeout, "page did not finish loading in time", err).
		WithDetail("url", target)
}

// newNavigationError reports a fatal failure to open the target
func newNavigationError(target string, err error) error {
	return models.NewPipelineError(models.ErrCodeNavigation, "failed to open page", err).
		WithDetail("url", target)
}

// newTransientRenderingError wraps a recoverable extend or measure failure
func newTransientRenderingError(stage string, step int, err error) error {
	return models.NewPipelineError(models.ErrCodeRendering, stage+" failed", err).
		WithDetail("stage", stage).
		WithDetail("step", step)
}

// IsTransient reports whether err is a recoverable rendering failure
func IsTransient(err error) bool {
	return errors.Is(err, ErrRendering)
}
