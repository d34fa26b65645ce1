package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/media-librarian/internal/util"
)

var processCmd = &cobra.Command{
	Use:   "process <id>",
	Short: "Re-process a single catalog item",
	Long: `Re-resolve metadata and artwork for one item by catalog id, without a
full generation run. Useful after editing an item's movie.json override.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q", args[0])
	}

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.reconciler.ProcessSingle(context.Background(), id); err != nil {
		return err
	}

	movie, err := app.store.GetMovieByID(id)
	if err != nil {
		return err
	}
	util.SuccessLog("Re-processed %d: %s", movie.ID, movie.Title)
	return nil
}
