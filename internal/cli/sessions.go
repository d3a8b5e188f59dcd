package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/auth"
	"github.com/law-makers/scrollgrab/internal/ui"
)

// sessionStore is where sessions are saved; tests swap it for a file store
var sessionStore = auth.DefaultStore

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved login sessions",
	Long: `List, view, import and delete saved login sessions.

Sessions hold the cookies of a logged-in browser and are stored in your OS
keyring, or in ~/.scrollgrab/sessions when no keyring is available.`,
	Example: `  # List all saved sessions
  scrollgrab sessions list

  # View details of a specific session
  scrollgrab sessions view mine

  # Delete a session without the confirmation prompt
  scrollgrab sessions delete old --yes`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsViewCmd = &cobra.Command{
	Use:   "view <session-name>",
	Short: "View details of a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsView,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var deleteYes bool

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsViewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)

	sessionsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	store := sessionStore()

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "\nNo saved sessions found.")
		fmt.Fprintln(out, "\nCreate a session with:")
		fmt.Fprintln(out, "  scrollgrab login <url> --session=<name>")
		fmt.Fprintln(out, "  scrollgrab sessions import <name> --url=<url>")
		fmt.Fprintln(out)
		return nil
	}

	fmt.Fprintf(out, "\n%s\n", ui.Bold(fmt.Sprintf("📋 Saved Sessions (%d)", len(names))))
	fmt.Fprintf(out, "%s\n\n", ui.Rule())

	now := time.Now()
	for i, name := range names {
		fmt.Fprintf(out, "%d. %s\n", i+1, ui.Value(name))

		session, err := store.Load(name)
		if err != nil {
			loggerFor(cmd).Debug().Err(err).Str("session", name).Msg("Failed to load session")
			fmt.Fprintf(out, "   %s\n", ui.Warn(fmt.Sprintf("⚠️  Error loading: %v", err)))
			continue
		}

		fmt.Fprintf(out, "   URL: %s\n", session.URL)
		fmt.Fprintf(out, "   Cookies: %d\n", len(session.Cookies))
		fmt.Fprintf(out, "   Created: %s\n", session.CreatedAt.Format(time.RFC1123))
		if !session.ExpiresAt.IsZero() {
			if session.Expired(now) {
				fmt.Fprintf(out, "   Status: %s\n", ui.Warn(fmt.Sprintf("⚠️  Expired (%s ago)", now.Sub(session.ExpiresAt).Round(time.Hour))))
			} else {
				fmt.Fprintf(out, "   Expires: %s (in %s)\n",
					session.ExpiresAt.Format(time.RFC1123),
					session.ExpiresAt.Sub(now).Round(time.Hour))
			}
		}

		if i < len(names)-1 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	return nil
}

func runSessionsView(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	session, err := sessionStore().Load(name)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", name, err)
	}

	fmt.Fprintf(out, "\n%s\n", ui.Bold("🔍 Session Details: "+name))
	fmt.Fprintf(out, "%s\n\n", ui.Rule())

	fmt.Fprintf(out, "Name:     %s\n", session.Name)
	fmt.Fprintf(out, "URL:      %s\n", session.URL)
	fmt.Fprintf(out, "Created:  %s\n", session.CreatedAt.Format(time.RFC1123))

	if !session.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires:  %s\n", session.ExpiresAt.Format(time.RFC1123))
		if session.Expired(time.Now()) {
			fmt.Fprintf(out, "Status:   %s\n", ui.Warn("⚠️  Expired"))
		} else {
			fmt.Fprintf(out, "Status:   %s\n", ui.Success(fmt.Sprintf("✓ Valid (expires in %s)", time.Until(session.ExpiresAt).Round(time.Hour))))
		}
	}

	fmt.Fprintf(out, "\nCookies (%d):\n", len(session.Cookies))
	for i, cookie := range session.Cookies {
		if i >= 5 {
			fmt.Fprintf(out, "  ... and %d more\n", len(session.Cookies)-5)
			break
		}
		fmt.Fprintf(out, "  • %s (domain: %s)\n", cookie.Name, cookie.Domain)
	}

	if len(session.Headers) > 0 {
		fmt.Fprintf(out, "\nCustom Headers (%d):\n", len(session.Headers))
		for key, value := range session.Headers {
			fmt.Fprintf(out, "  • %s: %s\n", key, value)
		}
	}

	fmt.Fprintln(out)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	if !deleteYes {
		fmt.Fprintf(out, "\n⚠️  Delete session '%s'? [y/N]: ", name)
		if !confirmed(cmd.InOrStdin()) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := sessionStore().Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	loggerFor(cmd).Info().Str("session", name).Msg("Session deleted")
	fmt.Fprintf(out, "\n%s\n\n", ui.Success(fmt.Sprintf("✓ Session '%s' deleted successfully.", name)))
	return nil
}

func confirmed(r io.Reader) bool {
	line, _ := bufio.NewReader(r).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
