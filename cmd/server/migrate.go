package main

import (
	"fmt"

	"github.com/cargarage/execution-service/internal/infrastructure/db"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	database, err := db.NewConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(database)

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Infow("database_migrations_completed", "driver", cfg.Database.Driver)
	return nil
}
