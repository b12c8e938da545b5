package command

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"carrental/internal/seed"
	"carrental/pkg/app"
	"carrental/pkg/config"
)

var seedFrom string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import users.json, cars.json, rentItem.json and reviews.json into an empty store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load(ServiceName+"-seed", cfgPath)
		dir := seedFrom
		if dir == "" {
			dir = cfg.SeedDir
		}

		ctx := context.Background()
		storage, err := app.OpenStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer storage.Close(context.Background())

		return seedStore(ctx, cfg, storage, dir)
	},
}

func seedStore(ctx context.Context, cfg *config.Config, storage *app.Storage, dir string) error {
	if !cfg.UseMongo() && samePath(dir, cfg.DataDir) {
		cfg.Log.Info("Seed directory is the data directory, nothing to import", "dir", dir)
		return nil
	}

	source, err := seed.OpenFileStore(dir)
	if err != nil {
		return fmt.Errorf("failed to open seed data: %w", err)
	}

	target := &seed.Store{
		Cars:    storage.Cars,
		Users:   storage.Users,
		Rentals: storage.Rentals,
		Reviews: storage.Reviews,
	}
	_, err = seed.NewSeeder(source, target, cfg.Log).Run(ctx)
	return err
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func init() {
	seedCmd.Flags().StringVar(&seedFrom, "from", "", "directory holding the seed JSON files (defaults to $SEED_DIR)")
}
