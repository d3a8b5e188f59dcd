package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/app"
	"github.com/law-makers/scrollgrab/internal/config"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/reqctx"
	"github.com/law-makers/scrollgrab/internal/ui"
	urlutil "github.com/law-makers/scrollgrab/internal/utils/url"
)

var fetchFrom string

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Download media URLs from the command line or a list file",
	Long: `Downloads the given URLs into the output folder without opening a browser.

Without arguments the list saved by "scrollgrab discover" is used. Lines that
are blank or start with '#' are ignored, and invalid URLs are skipped with a
warning.`,
	Example: `  # Download what the last discover run saved
  scrollgrab fetch

  # Download a list produced elsewhere
  scrollgrab fetch --from=urls.txt -o ./media -c 10

  # Download two files
  scrollgrab fetch https://cdn.example.com/a.mp4 https://cdn.example.com/b.mp4`,
	Annotations: map[string]string{annApp: "true"},
	RunE:        runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	config.RegisterRetrievalFlags(fetchCmd)
	config.RegisterSessionFlag(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "Read URLs from this file, one per line")
	fetchCmd.Flags().String("kind", config.DefaultKind, "Media kind, picks the extension for URLs without one")
}

func runFetch(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	urls, err := fetchInput(cmd, a, args)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\n"+ui.Info("Nothing to download."))
		return nil
	}

	cmd.SetContext(reqctx.WithRun(cmd.Context()))
	return retrieveURLs(cmd, a, urls, app.RetrieveHooks{})
}

// fetchInput collects the URLs to download: arguments, --from, then the
// saved URL list
func fetchInput(cmd *cobra.Command, a *app.Application, args []string) ([]string, error) {
	raw := args
	if len(raw) == 0 {
		path := fetchFrom
		if path == "" {
			path = a.Config.URLList
		}
		list, err := discovery.ReadURLList(path)
		if err != nil {
			return nil, err
		}
		a.Logger.Debug().Str("file", path).Int("count", len(list)).Msg("Read URL list")
		raw = list
	}

	valid, rejected := urlutil.Partition(raw)
	for _, u := range rejected {
		a.Logger.Warn().Str("url", u).Msg("Skipping invalid URL")
	}
	if len(rejected) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn(fmt.Sprintf("⚠️  Skipped %d invalid URL(s)", len(rejected))))
	}
	return valid, nil
}
