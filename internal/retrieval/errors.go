package retrieval

import (
	"context"
	"errors"
	"net"

	"github.com/law-makers/scrollgrab/pkg/models"
)

// Sentinels for errors.Is
var (
	ErrFetchTimeout   = &models.PipelineError{Code: models.ErrCodeFetchTimeout}
	ErrFetchTransport = &models.PipelineError{Code: models.ErrCodeFetchTransport}
	ErrFetchStatus    = &models.PipelineError{Code: models.ErrCodeFetchStatus}
	ErrFilesystem     = &models.PipelineError{Code: models.ErrCodeFilesystem}
)

func newStatusError(url string, status int) error {
	return models.NewPipelineError(models.ErrCodeFetchStatus, "unexpected response status", nil).
		WithDetail("url", url).
		WithDetail("status", status)
}

func newFilesystemError(path string, err error) error {
	return models.NewPipelineError(models.ErrCodeFilesystem, "failed to write file", err).
		WithDetail("file", path)
}

// classifyNetError maps a request or body-read failure to a timeout or a
// transport error
func classifyNetError(url string, err error) error {
	if isTimeout(err) {
		return models.NewPipelineError(models.ErrCodeFetchTimeout, "fetch timed out", err).
			WithDetail("url", url)
	}
	return models.NewPipelineError(models.ErrCodeFetchTransport, "fetch failed", err).
		WithDetail("url", url)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
