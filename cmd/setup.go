package main

import (
	"context"
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/desertthunder/ottx/internal/repositories"
	"github.com/desertthunder/ottx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template, initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	r.writePlain("%s\n", figure.NewFigure(r.config.App.Name, "cybermedium", true).String())

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("existing config is invalid: %w", err)
		}
		r.writePlain("✓ Using existing config %s\n", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back the latest migration\n")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	keys, err := repositories.NewPersistRepository(db).Keys()
	if err != nil {
		return fmt.Errorf("failed to read stored items: %w", err)
	}
	r.writePlain("✓ Database ready at %s (%d stored items)\n", config.Database.Path, len(keys))

	if !config.Cleeng.Configured() {
		r.writePlainln("→ Set cleeng.publisher_id in %s before signing in.", configPath)
	}
	return nil
}
