package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/franz/media-librarian/internal/generate"
	"github.com/franz/media-librarian/internal/util"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a full library generation pass",
	Long: `Reconcile every configured source against the catalog.

New folders are added with metadata and artwork, existing items are
refreshed, and folders removed from disk are cleaned out of the catalog
along with their cached images. The search index is rebuilt at the end.

With --watch, mlib stays running and regenerates whenever folders are
added, removed or renamed under a source root.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Bool("watch", false, "keep running and regenerate on source changes")
	generateCmd.Flags().Duration("debounce", 0, "settle time before a watched change triggers a run")
	viper.BindPFlag("generate.watch_debounce", generateCmd.Flags().Lookup("debounce"))
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := generateOnce(ctx, app); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		watcher := generate.NewWatcher(app.orchestrator, app.store,
			viper.GetDuration("generate.watch_debounce"))
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		util.InfoLog("Watcher stopped")
	}
	return nil
}

// generateOnce runs a single foreground pass, rendering a progress bar on a
// terminal and falling back to the run's own log lines otherwise
func generateOnce(ctx context.Context, app *app) error {
	interactive := term.IsTerminal(int(os.Stderr.Fd())) && !viper.GetBool("quiet")

	done := make(chan error, 1)
	go func() { done <- app.orchestrator.Generate(ctx) }()

	if !interactive {
		return <-done
	}

	var bar *progressbar.ProgressBar
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			return err

		case <-ticker.C:
			snap := app.orchestrator.Status()
			total, completed := snap.Counts()
			if total == 0 {
				continue
			}
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Reconciling"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetPredictTime(true),
				)
			}
			bar.ChangeMax(total)
			bar.Set(completed)
		}
	}
}
