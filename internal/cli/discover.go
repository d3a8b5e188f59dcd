package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrollgrab/internal/app"
	"github.com/law-makers/scrollgrab/internal/config"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/reqctx"
	"github.com/law-makers/scrollgrab/internal/ui"

	// Browser backends register themselves
	_ "github.com/law-makers/scrollgrab/internal/engine/dynamic"
	_ "github.com/law-makers/scrollgrab/internal/engine/rodpage"
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover [url]",
	Short: "Scroll a page and save the media URLs it exposes",
	Long: `Opens the page in a headless browser, dismisses a welcome overlay if one is shown,
and scrolls until the page stops growing. Media URLs are collected from network
responses, from the rendered page and from embedded JSON state, then written to
a list file (one URL per line) that "scrollgrab fetch" can download later.`,
	Example: `  # Collect the video URLs of the default gallery
  scrollgrab discover

  # Collect images from another gallery into a custom list
  scrollgrab discover https://example.com/gallery --kind=image --url-list=images.txt

  # Scroll more patiently on a slow site
  scrollgrab discover https://example.com/feed --settle=5s --repeats=5`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annApp: "true", annTarget: "true"},
	RunE:        runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	config.RegisterDiscoveryFlags(discoverCmd)
	config.RegisterSessionFlag(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
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
	}
	return nil
}

// discoverURLs runs discovery with a progress spinner and prints the outcome.
// A partial result is still reported when discovery is interrupted.
func discoverURLs(cmd *cobra.Command, a *app.Application) ([]string, error) {
	cfg := a.Config
	out := cmd.OutOrStdout()

	ctx := reqctx.WithRun(cmd.Context())
	cmd.SetContext(ctx)

	fmt.Fprintf(out, "\n%s %s\n", ui.Bold("🔎 Discovering"), ui.Value(cfg.TargetURL))

	progress := newScrollProgress(cmd.ErrOrStderr(), showProgress(cfg))
	urls, stats, err := a.Discover(ctx, func(ev discovery.StepEvent) {
		progress.step(ev)
	})
	progress.finish()

	if err != nil && len(urls) == 0 {
		return nil, err
	}
	printDiscovery(out, urls, stats, cfg.URLList)
	return urls, err
}
