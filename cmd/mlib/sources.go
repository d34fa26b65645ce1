package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/media-librarian/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage library source folders",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <folder>",
	Short: "Register a source folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesAdd,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourcesList,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a source by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesRemove,
}

func init() {
	sourcesAddCmd.Flags().String("type", store.MediaTypeMovie, "media type of the source (movie or show)")
	sourcesCmd.AddCommand(sourcesAddCmd, sourcesListCmd, sourcesRemoveCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func openStore() (*store.Store, error) {
	return store.Open(viper.GetString("db"))
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	folder, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	mediaType, _ := cmd.Flags().GetString("type")

	src, err := db.AddSource(folder, mediaType)
	if err != nil {
		return err
	}
	fmt.Printf("Added source %d: %s (%s)\n", src.ID, src.FolderPath, src.MediaType)
	return nil
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sources, err := db.ListSources("")
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No sources configured. Add one with 'mlib sources add <folder>'.")
		return nil
	}
	for _, src := range sources {
		fmt.Printf("%3d  %-5s  %s\n", src.ID, src.MediaType, src.FolderPath)
	}
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid source id %q", args[0])
	}
	if err := db.RemoveSource(id); err != nil {
		return err
	}
	fmt.Printf("Removed source %d. Its items will be cleaned up on the next generate run.\n", id)
	return nil
}
