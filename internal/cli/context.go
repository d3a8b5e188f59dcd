// Package cli provides the command-line interface for scrollgrab.
package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/app"
	"github.com/law-makers/scrollgrab/internal/config"
)

// ctxKey is used for storing command state in the cobra context
type ctxKey string

const stateKey ctxKey = "scrollgrab"

// Command annotations read by the root pre-run hook
const (
	// annApp marks commands that need the full Application
	annApp = "scrollgrab/app"
	// annTarget marks commands whose first argument is the target URL
	annTarget = "scrollgrab/target"
)

// cmdState is what the pre-run hook prepares for a command
type cmdState struct {
	cfg    *config.Config
	app    *app.Application
	logger zerolog.Logger
	closer io.Closer
}

func setState(cmd *cobra.Command, s *cmdState) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, stateKey, s))
}

func getState(cmd *cobra.Command) *cmdState {
	if ctx := cmd.Context(); ctx != nil {
		if s, ok := ctx.Value(stateKey).(*cmdState); ok {
			return s
		}
	}
	return nil
}

// GetApp retrieves the Application prepared for cmd, or nil
func GetApp(cmd *cobra.Command) *app.Application {
	if s := getState(cmd); s != nil {
		return s.app
	}
	return nil
}

// loggerFor returns the command logger, or a disabled one before pre-run
func loggerFor(cmd *cobra.Command) *zerolog.Logger {
	if s := getState(cmd); s != nil {
		return &s.logger
	}
	nop := zerolog.Nop()
	return &nop
}
