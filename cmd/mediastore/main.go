package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"trackroom/internal/config"
	"trackroom/internal/infra/disk"
	"trackroom/internal/mediastore"
	"trackroom/internal/waveform"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := disk.NewStore(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("Failed to open storage root: %v", err)
	}

	extractor := waveform.NewExtractor(cfg.Storage.WaveformTool, cfg.Storage.WaveformTimeout)
	service := mediastore.NewService(store, extractor, cfg.Storage.MaxUploadBytes)
	server := mediastore.NewServer(cfg, service)

	go func() {
		log.Printf("Starting media store on :%s (root %s)", cfg.Server.StorePort, store.Root())
		if err := server.Start(":" + cfg.Server.StorePort); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Failed to shut down cleanly: %v", err)
	}
}
