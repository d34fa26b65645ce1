package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/media-librarian/internal/generate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the last or current generation run",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("log", false, "include the run's trace log")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	snap, err := generate.LoadSnapshot(statusFilePath(viper.GetString("cache_dir")))
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("No generation run recorded yet. Run 'mlib generate' first.")
		return nil
	}

	fmt.Printf("Run:       %s\n", snap.RunID)
	fmt.Printf("State:     %s\n", snap.State)
	if !snap.StartTime.IsZero() {
		fmt.Printf("Started:   %s\n", humanize.Time(snap.StartTime))
	}
	if !snap.LastCompletedTime.IsZero() {
		fmt.Printf("Completed: %s\n", humanize.Time(snap.LastCompletedTime))
	}
	if snap.Error != "" {
		fmt.Printf("Error:     %s\n", snap.Error)
	}

	for mediaType, p := range snap.Progress {
		fmt.Printf("%-9s %s of %s processed\n", mediaType+":",
			humanize.Comma(int64(p.Completed)), humanize.Comma(int64(p.Total)))
	}

	if snap.Running() {
		if remaining := snap.SecondsRemaining(); remaining > 0 {
			fmt.Printf("ETA:       %s\n", (time.Duration(remaining) * time.Second).String())
		}
		for _, path := range snap.ActiveFiles {
			fmt.Printf("  active: %s\n", path)
		}
	}

	if len(snap.FailedItems) > 0 {
		fmt.Printf("\n%d failed:\n", len(snap.FailedItems))
		for _, item := range snap.FailedItems {
			fmt.Printf("  %s (%s): %s\n", item.Path, item.MediaType, item.Error)
		}
	}

	if showLog, _ := cmd.Flags().GetBool("log"); showLog {
		fmt.Println()
		for _, line := range snap.Log {
			fmt.Println(line)
		}
	}
	return nil
}
