package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avelez/shopadmin-be/internal/api"
	"github.com/avelez/shopadmin-be/internal/api/handlers"
	"github.com/avelez/shopadmin-be/internal/auth"
	"github.com/avelez/shopadmin-be/internal/config"
	"github.com/avelez/shopadmin-be/internal/database"
	"github.com/avelez/shopadmin-be/internal/logger"
	"github.com/avelez/shopadmin-be/internal/monitoring"
	"github.com/avelez/shopadmin-be/internal/services"
	"github.com/avelez/shopadmin-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the auth layer from the one configured admin identity
	verifier := auth.NewCredentialVerifier(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash)
	if !verifier.HasHash() {
		log.Warn().Msg("No ADMIN_PASSWORD_HASH configured; using plaintext password comparison (development only)")
	}
	if cfg.AuthSecret == config.DevAuthSecret {
		log.Warn().Msg("AUTH_SECRET not set; using the development signing key")
	}
	codec := auth.NewCodec(cfg.AuthSecret)
	cookies := auth.NewCookieStore(cfg.IsProduction())
	gate := auth.NewGate(codec, cookies)

	// Set up WebSocket Hub for catalog events
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	productService := services.NewProductService(db, hub)

	var uploader services.Uploader
	if cfg.CloudinaryCloudName != "" {
		uploader = services.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)
	} else {
		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create upload directory")
		}
		uploader = services.NewLocalUploader(cfg.UploadDir, "/uploads")
		log.Info().Str("dir", cfg.UploadDir).Msg("No image host configured, storing uploads locally")
	}

	// Set up and run the background low-stock watcher
	watcher := monitoring.NewStockWatcher(productService, hub, cfg.LowStockCron)
	if err := watcher.Run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start stock watcher")
	}

	// Set up router
	router := api.NewRouter(
		cfg,
		gate,
		handlers.NewAuthHandler(verifier, codec, cookies, gate),
		handlers.NewProductHandler(productService),
		handlers.NewStatsHandler(productService),
		handlers.NewUploadHandler(uploader),
		handlers.NewWebSocketHandler(hub),
	)

	// Set up server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
