package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/franz/media-librarian/internal/util"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mlib",
		Short: "Media Librarian - generate and search a personal media library",
		Long: `mlib (Media Librarian) scans configured source folders for movies and shows,
resolves metadata from TMDB, caches artwork with resized derivatives, and
maintains a searchable catalog. Runs are idempotent: unchanged items are
left alone, new folders are added, and removed folders are cleaned up.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mlib.yaml)")
	rootCmd.PersistentFlags().String("db", "mlib-catalog.db", "catalog database file")
	rootCmd.PersistentFlags().String("cache-dir", "cache", "root directory for metadata, images and the search index")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/mlib")
		viper.SetConfigName("mlib")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("MLIB")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}

	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
	util.SetColors(term.IsTerminal(int(os.Stderr.Fd())))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
