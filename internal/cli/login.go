package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/auth"
	"github.com/law-makers/scrollgrab/internal/engine/dynamic"
	"github.com/law-makers/scrollgrab/internal/ui"
	"github.com/law-makers/scrollgrab/internal/utils/headers"
)

var (
	loginSession        string
	waitSelector        string
	loginTimeout        time.Duration
	remoteDebuggingPort int
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <url>",
	Short: "Log in to a website in a browser window and save the session",
	Long: `Opens a visible browser window for you to log in by hand. The cookies are then
captured and stored in your OS keyring (or a private file when no keyring is
available).

Pass the session to "run", "discover" or "fetch" to crawl pages that need an
account. For headless environments use --remote-debug, or import cookies with
"scrollgrab sessions import".`,
	Example: `  # Log in and wait until the feed is visible
  scrollgrab login https://example.com/login --session=mine --wait="#feed"

  # Log in inside a dev container through a forwarded port
  scrollgrab login https://example.com/login --session=mine --remote-debug=9222

  # Use the saved session
  scrollgrab run https://example.com/me/likes --session=mine`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginSession, "session", "s", "", "Session name to save (required)")
	loginCmd.Flags().StringVarP(&waitSelector, "wait", "w", "", "CSS selector to wait for after login (e.g., '#feed')")
	loginCmd.Flags().DurationVar(&loginTimeout, "login-timeout", auth.DefaultLoginTimeout, "Timeout for the login process")
	loginCmd.Flags().IntVar(&remoteDebuggingPort, "remote-debug", 0, "Enable Chrome remote debugging on this port (e.g., 9222)")
	loginCmd.MarkFlagRequired("session")
}

func runLogin(cmd *cobra.Command, args []string) error {
	state := getState(cmd)
	if state == nil {
		return fmt.Errorf("command not initialized")
	}
	cfg, logger := state.cfg, state.logger
	out := cmd.OutOrStdout()
	url := args[0]

	custom, err := headers.Parse(cfg.Headers)
	if err != nil {
		return err
	}

	chromePath := cfg.ChromePath
	if chromePath == "" {
		chromePath = dynamic.FindChrome(logger)
	}

	fmt.Fprintf(out, "\n%s\n", ui.Bold("🔐 Interactive Login"))
	fmt.Fprintf(out, "%s\n\n", ui.Rule())
	fmt.Fprintf(out, "  %s %s\n", ui.Label("Session:"), ui.Value(loginSession))
	fmt.Fprintf(out, "  %s %s\n", ui.Label("URL:"), ui.Value(url))
	if waitSelector != "" {
		fmt.Fprintf(out, "  %s %s\n", ui.Label("Waiting:"), ui.Value(waitSelector))
	}
	fmt.Fprintf(out, "  %s %s\n", ui.Label("Timeout:"), ui.Value(loginTimeout.String()))

	session, err := auth.InteractiveLogin(cmd.Context(), auth.LoginOptions{
		SessionName:         loginSession,
		URL:                 url,
		WaitSelector:        waitSelector,
		Timeout:             loginTimeout,
		Headers:             custom,
		ChromePath:          chromePath,
		RemoteDebuggingPort: remoteDebuggingPort,
		Prompt:              out,
		Confirm:             cmd.InOrStdin(),
	}, logger)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	logger.Info().Str("session", session.Name).Msg("Saving session")
	if err := sessionStore().Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintln(out, ui.Success("\n✓ Session saved successfully!"))
	printSessionUsage(cmd, session)
	return nil
}

func printSessionUsage(cmd *cobra.Command, session *auth.SessionData) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n", ui.Bold("You can now use this session with:"))
	fmt.Fprintf(out, "  %s%s\n", ui.Command("scrollgrab run <url> --session="), ui.Value(session.Name))
	fmt.Fprintf(out, "  %s%s\n\n", ui.Command("scrollgrab fetch --session="), ui.Value(session.Name))
	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Session expires: %s\n\n", session.ExpiresAt.Format(time.RFC1123))
	}
}
