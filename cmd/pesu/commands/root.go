package commands

import (
	"context"
	"fmt"
	"os"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/internal/scrapers/pesu"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	jsonOutput *bool
	debug      *bool
	semester   *int
)

var rootCmd = &cobra.Command{
	Use:   "pesu",
	Short: "pesu is a CLI for reading your data off of the PESU Academy portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "pesu.json5", "The config file to read, overrides are read from <name>.local.json5.")
	jsonOutput = rootCmd.PersistentFlags().Bool("json", false, "Print JSON instead of tables.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log debug output and dump every http message to .dev/http.")
	semester = rootCmd.PersistentFlags().Int("semester", pesu.AllSemesters, "The semester to fetch, 0 means every semester.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
