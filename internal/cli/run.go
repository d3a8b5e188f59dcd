package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/app"
	"github.com/law-makers/scrollgrab/internal/config"
	"github.com/law-makers/scrollgrab/internal/ui"
	"github.com/law-makers/scrollgrab/pkg/models"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [url]",
	Short: "Discover the media of a page and download it",
	Long: `Runs discovery (see "scrollgrab discover") and then downloads every URL found.

Files are named from a hash of their URL, so running again skips what is
already on disk. A failed download does not stop the others.`,
	Example: `  # Download the default gallery with 5 parallel downloads
  scrollgrab run

  # Download a gallery you are logged in to, one file at a time
  scrollgrab run https://example.com/me/likes --session=mine --sequential

  # Write a report next to the files
  scrollgrab run https://example.com/gallery -o ./gallery --report=html,json`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annApp: "true", annTarget: "true"},
	RunE:        runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	config.RegisterDiscoveryFlags(runCmd)
	config.RegisterRetrievalFlags(runCmd)
	config.RegisterSessionFlag(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a := GetApp(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	urls, err := discoverURLs(cmd, a)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		printNoMedia(cmd.OutOrStdout())
		return nil
	}

	return retrieveURLs(cmd, a, urls, app.RetrieveHooks{
		Target:     a.Config.TargetURL,
		Discovered: len(urls),
	})
}

// retrieveURLs downloads urls with progress display and prints the summary.
// Individual download failures are reported but are not an error.
func retrieveURLs(cmd *cobra.Command, a *app.Application, urls []string, hooks app.RetrieveHooks) error {
	cfg := a.Config
	out := cmd.OutOrStdout()

	mode := fmt.Sprintf("%d parallel downloads", cfg.Concurrency)
	if cfg.Sequential {
		mode = "sequential downloads"
	}
	fmt.Fprintf(out, "\n%s %s\n\n", ui.Info(fmt.Sprintf("Downloading %d file(s) with", len(urls))), ui.Value(mode))

	progress := newDownloadProgress(cmd.ErrOrStderr(), showProgress(cfg), cfg.Sequential, len(urls))
	hooks.OnItem = func(item models.ItemResult) {
		progress.item(item)
	}
	if cfg.Sequential {
		hooks.ByteProgress = progress.bytes
	}

	run, err := a.Retrieve(cmd.Context(), urls, hooks)
	progress.finish()

	printSummary(out, run)
	return err
}
