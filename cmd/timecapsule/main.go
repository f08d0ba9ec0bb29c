package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"techtimecapsule-backend-go/internal/cli"
	"techtimecapsule-backend-go/internal/config"
	"techtimecapsule-backend-go/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}

	stopLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays, os.Stderr)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
		stopLogs = func() {}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = cli.NewRootCommand(&cli.RootOptions{Config: cfg}).ExecuteContext(ctx)
	stop()
	stopLogs()
	if err != nil {
		config.Exitf("error: %v", err)
	}
}
