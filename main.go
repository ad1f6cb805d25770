package main

import (
	"log"
	"time"

	"OllamaDesk/middleware"
	"OllamaDesk/pkg/config"
	"OllamaDesk/pkg/database"
	"OllamaDesk/pkg/logger"
	"OllamaDesk/pkg/relay"
	svc "OllamaDesk/pkg/services"
	"OllamaDesk/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting",
		zap.String("env", cfg.AppEnv),
		zap.String("ollama", cfg.OllamaBaseURL),
		zap.String("default_model", cfg.DefaultModel),
		zap.String("db_driver", cfg.DBDriver))

	db, err := database.Open(cfg, zl)
	if err != nil {
		zl.Fatal("database unreachable", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("database migration failed", zap.Error(err))
	}

	ollama := svc.NewOllamaClient(cfg.OllamaBaseURL, cfg.StreamTimeout, zl)
	summarizer := svc.NewSummarizer(ollama, cfg.SummaryModel, cfg.SummaryTimeout, zl)

	deps := routes.Deps{
		Relay: relay.New(ollama, relay.Options{
			DefaultModel: cfg.DefaultModel,
			Temperature:  cfg.Temperature,
			NumPredict:   cfg.NumPredict,
		}, zl.Named("relay")),
		Conversations:     svc.NewConversationService(db, summarizer, zl),
		Models:            svc.NewModelCatalog(ollama, cfg.ModelsCacheTTL, zl),
		Desktop:           svc.NewDesktopExiter(cfg.ExitProcessPattern, zl),
		WSMaxMessageBytes: cfg.WSMaxMessageBytes,
		Limiter:           middleware.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitBurst),
		Log:               zl,
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(zl.Named("http")))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, deps)

	zl.Info("listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zl.Fatal("server failed", zap.Error(err))
	}
}
