// Package command holds the carrental CLI.
//
//	carrental serve [--seed] [-c config.yaml]   # start the HTTP API
//	carrental migrate [-c config.yaml]          # create Mongo collections and indexes
//	carrental seed [--from dir] [-c config.yaml] # import the legacy JSON data set
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const ServiceName = "carrental"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "carrental",
	Short: "Car rental API with availability checks and bookings",
	Long: `Car rental API. Cars, users, rentals and reviews are stored either in
JSON files under DATA_DIR or in MongoDB (STORAGE_BACKEND=mongo).
Running without a sub-command starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute parses the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "YAML config file (defaults to $CONFIG_FILE)",
	)
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}
