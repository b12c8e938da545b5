package command

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	migrations "carrental/internal/migrations/mongo"
	"carrental/pkg/app"
	"carrental/pkg/config"
)

const migrationTimeout = 120 * time.Second

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create MongoDB collections, schema validators and indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load(ServiceName+"-migrate", cfgPath)
		if !cfg.UseMongo() {
			return errors.New("migrate requires STORAGE_BACKEND=mongo")
		}

		ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
		defer cancel()

		storage, err := app.OpenStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer storage.Close(context.Background())

		cfg.Log.Info("Starting Mongo migration job")
		if err := migrations.RunMigration(ctx, storage.Database(cfg), cfg.Log); err != nil {
			cfg.Log.Error("Migration failed", "error", err)
			return err
		}
		return nil
	},
}
