package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/config"
	"github.com/kendall-kelly/tailor-orders-api/controllers"
	"github.com/kendall-kelly/tailor-orders-api/middleware"
	"github.com/kendall-kelly/tailor-orders-api/services"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so fall back to a default one here
		utils.GetLogger().Fatal("failed to load configuration", zap.Error(err))
	}

	if err := utils.InitLogger(cfg.GoEnv, cfg.LogLevel); err != nil {
		utils.GetLogger().Fatal("failed to initialize logger", zap.Error(err))
	}
	defer utils.SyncLogger()
	logger := utils.GetLogger()
	logger.Info("starting tailor orders API", zap.String("env", cfg.GoEnv))

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	logger.Info("database migration completed successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	local := services.NewLocalStorage(cfg.StorageRoot)
	backend, err := services.NewStorageBackend(ctx, cfg, local)
	cancel()
	if err != nil {
		logger.Fatal("failed to initialize image storage", zap.Error(err))
	}
	logger.Info("image storage ready", zap.String("backend", backend.Name()))

	var events services.EventPublisher = services.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := services.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn("failed to close kafka publisher", zap.Error(err))
			}
		}()
		events = kafkaPublisher
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	images := services.NewImageService(backend, local, services.NewLegacyPolicy(cfg.Legacy), cfg.AppURL)
	handler := controllers.NewHandler(
		db,
		services.NewOrderService(db, images, events),
		services.NewLedgerService(db, events),
		services.NewReportService(db, cfg.ReportMaxRows),
		local,
		services.NewAuth0Service(cfg),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(handler, middleware.EnsureValidToken(cfg), cfg.CORSOrigins)

	port := ":" + cfg.Port
	logger.Info("server is running", zap.String("addr", "http://localhost"+port))
	if err := router.Run(port); err != nil {
		logger.Error("server stopped", zap.Error(err))
		utils.SyncLogger()
		os.Exit(1)
	}
}

// setupRouter builds the engine with middleware, public endpoints and the authenticated API
func setupRouter(handler *controllers.Handler, auth gin.HandlerFunc, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) > 0 {
		corsConfig.AllowOrigins = corsOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.RegisterFileRoutes(router)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		handler.RegisterRoutes(v1, auth)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tailor Orders API is running",
	})
}
