package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/config"
	"github.com/example/packscan/internal/httpserver"
	"github.com/example/packscan/internal/inspector"
	"github.com/example/packscan/internal/logging"
	"github.com/example/packscan/internal/vision"
)

func main() {
	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	annotator := vision.NewClient(cfg.VisionEndpoint, cfg.VisionAPIKey, logger)

	r := gin.Default()
	inspector.RegisterRoutes(r, annotator, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	logger.Info("packscan inspector listening", zap.String("addr", server.Addr))
	if err := httpserver.Serve(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
