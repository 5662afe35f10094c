package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"santa-video-backend/internal/config"
	"santa-video-backend/internal/email"
	"santa-video-backend/internal/gemini"
	"santa-video-backend/internal/handlers"
	"santa-video-backend/internal/orchestrator"
	"santa-video-backend/internal/payments"
	"santa-video-backend/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Working directories for staged uploads and output artifacts
	for _, dir := range []string{cfg.UploadsDir, cfg.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	// Stores
	uploadRegistry := store.NewUploadRegistry(cfg.UploadsDir, cfg.UploadTTL, logger)
	orderStore := store.NewOrderStore()

	// External clients
	geminiClient := gemini.NewClient(cfg.GeminiBaseURL, cfg.GoogleAPIKey, cfg.ImageModel, cfg.VideoModel)
	paymentsClient := payments.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.BaseURL, cfg.PriceCents)
	emailClient := email.NewClient(cfg.ResendAPIKey, cfg.EmailFrom)

	// Orchestrator
	orch := orchestrator.New(orderStore, uploadRegistry, geminiClient, emailClient, orchestrator.Config{
		OutputsDir:      cfg.OutputsDir,
		BaseURL:         cfg.BaseURL,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}, logger)

	// Handlers
	uploadHandler := handlers.NewUploadHandler(uploadRegistry, logger)
	checkoutHandler := handlers.NewCheckoutHandler(uploadRegistry, paymentsClient, logger)
	processingHandler := handlers.NewProcessingHandler(paymentsClient, orch, filepath.Join("public", "processing.html"), logger)
	statusHandler := handlers.NewStatusHandler(orderStore)
	webhookHandler := handlers.NewWebhookHandler(paymentsClient, logger)

	// Setup router
	router := gin.Default()

	router.StaticFile("/", filepath.Join("public", "index.html"))
	router.Static("/outputs", cfg.OutputsDir)

	router.GET("/health", handlers.HealthHandler)

	router.POST("/upload", uploadHandler.Upload)
	router.POST("/create-checkout", checkoutHandler.CreateCheckout)
	router.GET("/processing", processingHandler.Processing)
	router.GET("/status/:session_id", statusHandler.GetStatus)
	router.POST("/webhook", webhookHandler.HandleWebhook)

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
