// Command migrate applies the telemetry store migrations.
//
//	migrate [up|down|status|version|redo|up-to N|down-to N]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"opsgate/internal/platform/config"
	"opsgate/internal/platform/database"
	"opsgate/internal/platform/logger"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if cfg.Database.URL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	pool, err := database.New(ctx, dbCfg)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool.DB(), command, args...); err != nil {
		log.Error("migration failed", "command", command, "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // pool is closed by process exit
	}
	log.Info("migration complete", "command", command)
}
