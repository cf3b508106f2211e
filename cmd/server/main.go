package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expense-tracker-api/internal/config"
	"expense-tracker-api/internal/server"
	"expense-tracker-api/internal/storage"
	"expense-tracker-api/internal/storage/postgres"
	"expense-tracker-api/internal/storage/sqlite"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer store.Close()

	srv, err := server.New(cfg, store)
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	go func() {
		log.Printf("expense tracker API listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

// openStore picks Postgres when DATABASE_URL is set, otherwise the embedded
// sqlite store.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.DatabaseURL != "" {
		return postgres.New(ctx, cfg.DatabaseURL)
	}
	return sqlite.New(cfg.SQLitePath)
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
