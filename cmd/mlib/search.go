package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/media-librarian/internal/search"
	"github.com/franz/media-librarian/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>...",
	Short: "Search the library catalog",
	Long: `Search titles, ratings and summaries. Every word must match; exact
word matches rank above substring matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntP("max", "n", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	max, _ := cmd.Flags().GetInt("max")
	index := search.NewIndex(db, indexPath(viper.GetString("cache_dir")))

	hits, err := index.Query(strings.Join(args, " "), max)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for i, hit := range hits {
		movie, err := db.GetMovieByID(hit.ID)
		if err != nil {
			continue
		}
		year := ""
		if movie.ReleaseYear != 0 {
			year = fmt.Sprintf(" (%d)", movie.ReleaseYear)
		}
		fmt.Printf("%2d. [%d] %s%s\n", i+1, movie.ID, movie.Title, year)
	}
	return nil
}
