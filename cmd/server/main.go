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

	"github.com/lzhoang/userbase-be/internal/config"
	"github.com/lzhoang/userbase-be/internal/server"
	"github.com/lzhoang/userbase-be/internal/storage"
	"github.com/lzhoang/userbase-be/internal/storage/jsonfile"
	"github.com/lzhoang/userbase-be/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var store storage.UserStore
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pgStore, err := postgres.NewUserStore(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	default:
		store = jsonfile.New(cfg.DataFile)
	}

	srv, err := server.New(cfg, store)
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	go func() {
		log.Printf("userbase backend listening on %s (storage=%s)", cfg.HTTPAddress(), cfg.StorageDriver)
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

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
