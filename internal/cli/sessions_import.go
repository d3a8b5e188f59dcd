package cli

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/auth"
	"github.com/law-makers/scrollgrab/internal/ui"
	urlutil "github.com/law-makers/scrollgrab/internal/utils/url"
)

var (
	importURL    string
	importFormat string
)

// sessionsImportCmd represents the sessions import command
var sessionsImportCmd = &cobra.Command{
	Use:   "import <session-name>",
	Short: "Import cookies from your browser to create a session",
	Long: `Creates a session from cookies copied out of your own browser.

This is useful in headless environments (Codespaces, dev containers) where the
login browser window cannot be shown.

Steps:
1. Open the website in your regular browser and log in
2. Export the cookies (a cookies.txt extension, or DevTools → Application → Cookies)
3. Pipe them into this command`,
	Example: `  # Type cookies in by hand
  scrollgrab sessions import mine --url=https://example.com

  # Import a Netscape/curl cookies.txt file
  scrollgrab sessions import mine --url=https://example.com --format=netscape < cookies.txt

  # Import a JSON cookie export
  scrollgrab sessions import mine --url=https://example.com --format=json < cookies.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsImport,
}

func init() {
	sessionsCmd.AddCommand(sessionsImportCmd)

	sessionsImportCmd.Flags().StringVar(&importURL, "url", "", "Website URL for this session (required)")
	sessionsImportCmd.Flags().StringVar(&importFormat, "format", "interactive", "Import format: interactive, json, netscape")
	sessionsImportCmd.MarkFlagRequired("url")
}

func runSessionsImport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	if err := urlutil.ValidateURL(importURL); err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}

	fmt.Fprintf(out, "\n%s\n", ui.Bold("🔐 Import Session: "+name))
	fmt.Fprintf(out, "%s\n\n", ui.Rule())

	var cookies []auth.Cookie
	var err error
	in := cmd.InOrStdin()

	switch importFormat {
	case "interactive":
		cookies, err = importInteractive(in, out, cookieDomain(importURL))
	case "json":
		cookies, err = auth.ParseJSONCookies(in)
	case "netscape":
		cookies, err = auth.ParseNetscapeCookies(in)
	default:
		return fmt.Errorf("unsupported format: %s (use: interactive, json, netscape)", importFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies imported")
	}

	session := &auth.SessionData{
		Name:      name,
		URL:       importURL,
		Cookies:   cookies,
		Headers:   make(map[string]string),
		CreatedAt: time.Now(),
	}
	session.SetExpiryFromCookies()

	if err := sessionStore().Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	loggerFor(cmd).Info().
		Str("session", name).
		Int("cookies", len(cookies)).
		Str("format", importFormat).
		Msg("Session imported")

	fmt.Fprintln(out, ui.Success(fmt.Sprintf("\n✓ Session '%s' created with %d cookie(s)", name, len(cookies))))
	printSessionUsage(cmd, session)
	return nil
}

// cookieDomain is the default domain offered for hand-entered cookies
func cookieDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "." + strings.TrimPrefix(u.Hostname(), "www.")
}

func importInteractive(in io.Reader, out io.Writer, domain string) ([]auth.Cookie, error) {
	fmt.Fprintln(out, "📋 Cookie Import Guide:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "1. Open the website in your browser and log in")
	fmt.Fprintln(out, "2. Press F12 to open DevTools")
	fmt.Fprintln(out, "3. Go to: Application → Storage → Cookies")
	fmt.Fprintln(out, "4. For each cookie the site needs, copy the Name and Value")

	var cookies []auth.Cookie
	scanner := bufio.NewScanner(in)
	ask := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		fmt.Fprintf(out, "\n%s\n", ui.Rule())

		name, ok := ask("\nCookie Name (or press Enter to finish): ")
		if !ok || name == "" {
			break
		}
		value, ok := ask("Cookie Value: ")
		if !ok {
			break
		}
		if value == "" {
			fmt.Fprintln(out, ui.Warn("⚠️  Skipping cookie with empty value"))
			continue
		}
		d, ok := ask(fmt.Sprintf("Domain [%s]: ", domain))
		if !ok {
			break
		}
		if d == "" {
			d = domain
		}

		cookie := auth.Cookie{
			Name:     name,
			Value:    value,
			Domain:   d,
			Path:     "/",
			Secure:   true,
			HTTPOnly: true,
		}
		cookies = append(cookies, cookie)
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("✓ Added: %s (domain: %s)", cookie.Name, cookie.Domain)))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "\nTotal cookies added: %d\n", len(cookies))
	return cookies, nil
}
