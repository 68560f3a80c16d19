package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
	"github.com/trustpoints/trustpoints-backend/pkg/migrate"
)

func main() {
	var (
		cmd     = flag.String("cmd", "up", "migration command: up, down, status, version, create, validate")
		dir     = flag.String("dir", migrate.DefaultDir, "directory with migration files")
		name    = flag.String("name", "", "migration name (required for create)")
		version = flag.String("version", "", "target version (required for version)")
	)
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	// create and validate work on files only, no DB needed.
	switch *cmd {
	case "create":
		if *name == "" {
			logg.Error(ctx, "missing -name for create", fmt.Errorf("name is required"))
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			logg.Error(ctx, "failed to create migration", err)
			os.Exit(1)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"path": path}), "migration created")
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			logg.Error(ctx, "migration directory invalid", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migration directory valid")
		return
	}

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to unwrap sql.DB", err)
		os.Exit(1)
	}

	switch *cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, *dir, *cmd)
	case "version":
		if *version == "" {
			err = fmt.Errorf("version is required")
		} else {
			err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
		}
	default:
		err = fmt.Errorf("unknown command %q", *cmd)
	}
	if err != nil {
		logg.Error(logg.WithFields(ctx, map[string]any{"cmd": *cmd}), "migration failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"cmd": *cmd, "dir": *dir}), "migration command completed")
}
