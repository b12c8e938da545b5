package command

import (
	"context"

	"github.com/spf13/cobra"

	"carrental/pkg/app"
	"carrental/pkg/config"
)

var seedOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg := config.Load(ServiceName, cfgPath)
	cfg.Log.Info("Starting car rental service")

	a, err := app.NewApplication(ctx, cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize application", "error", err)
	}

	if seedOnStart {
		if err := seedStore(ctx, cfg, a.Storage(), cfg.SeedDir); err != nil {
			a.Close()
			cfg.Log.Fatal("Seeding failed", "error", err)
		}
	}

	a.Run()
	return nil
}

func init() {
	serveCmd.Flags().BoolVar(&seedOnStart, "seed", false, "import the seed data set when the store is empty")
}
