// Package main runs the webcore kernel as a standalone HTTP server.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/openfieldhq/webcore/internal/app"
	"github.com/openfieldhq/webcore/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file (default config/webcore.yaml)")
	flag.Parse()

	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid config: %v", err)
		}
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("build application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("start application: %v", err)
	}

	runErr := application.Run(ctx)

	if err := application.Shutdown(context.Background()); err != nil {
		application.Logger().WithError(err).Error("shutdown incomplete")
	}
	if runErr != nil {
		log.Fatalf("server error: %v", runErr)
	}
}
