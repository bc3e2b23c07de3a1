package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"trackroom/internal/auth"
	"trackroom/internal/config"
	"trackroom/internal/http"
	"trackroom/internal/peer"
	"trackroom/internal/repository/postgres"
	"trackroom/internal/service"
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

	db, err := postgres.New(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	tokenService := auth.NewTokenService(cfg.Auth.TokenSecret)
	peerClient := peer.NewClient(cfg.Peer.MediaStoreURL)
	mediaRepo := postgres.NewMediaRepository(db)
	userRepo := postgres.NewUserRepository(db)
	deleter := service.NewDeletionCoordinator(mediaRepo, peerClient)

	server := http.NewServer(&http.ServerDependencies{
		Config:       cfg,
		Users:        userRepo,
		Media:        mediaRepo,
		Uploads:      peerClient,
		Files:        peerClient,
		Deleter:      deleter,
		TokenService: tokenService,
	})

	go func() {
		log.Printf("Starting trackroom on :%s", cfg.Server.AppPort)
		if err := server.Start(":" + cfg.Server.AppPort); err != nil {
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
