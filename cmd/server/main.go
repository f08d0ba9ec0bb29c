package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"techtimecapsule-backend-go/internal/config"
	"techtimecapsule-backend-go/internal/db"
	httpapi "techtimecapsule-backend-go/internal/http"
	"techtimecapsule-backend-go/internal/logging"
	"techtimecapsule-backend-go/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	if err := cfg.RequireSecret(); err != nil {
		config.Exitf("config: %v", err)
	}

	cleanupLogs, err := logging.Setup(cfg.LogDir, cfg.LogRetentionDays, os.Stdout)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer cleanupLogs()
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = migrations.Apply(ctx, database)
	cancel()
	if err != nil {
		log.Fatalf("migrations: %v", err)
	}

	server := httpapi.NewServer(database, cfg)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (driver %s)", cfg.Addr(), database.DriverName())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}
