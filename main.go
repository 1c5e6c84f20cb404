package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tubevault/config"
	"tubevault/internal/handler"
	"tubevault/internal/progress"
	"tubevault/internal/search"
	"tubevault/internal/service"
	"tubevault/internal/storage"
	"tubevault/pkg/logger"
	"tubevault/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting tubevault",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	// Open the library store
	store, err := storage.Open(&cfg.Library)
	if err != nil {
		logger.Logger.Fatal("Failed to open library store", zap.Error(err))
	}
	defer store.Close()

	// Progress registry: terminal entries are kept for an hour so the UI
	// can still read the outcome of a finished job.
	registry := progress.NewRegistry(time.Hour)
	registry.Start()
	defer registry.Stop()

	// Initialize services
	searchClient := search.NewClient(&cfg.YouTube)
	downloadService := service.NewDownloadService(&cfg.Downloader, &cfg.Library, registry, store)
	budgetService := service.NewBudgetService(&cfg.DiskBudget, store)
	rateLimitService := service.NewRateLimitService(&cfg.RateLimit)
	defer rateLimitService.Stop()

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(logger.GinLogger())
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(rateLimitService))
		logger.Logger.Info("Rate limiting enabled",
			zap.Int("requests_per_minute", cfg.RateLimit.RequestsPerMinute))
	}

	// Downloaded artifacts and collection contents are served directly
	router.Static("/downloads", cfg.Library.RootDir)

	// API handlers
	searchHandler := handler.NewSearchHandler(searchClient)
	downloadHandler := handler.NewDownloadHandler(downloadService, registry, store, budgetService)
	collectionHandler := handler.NewCollectionHandler(store)

	// Routes
	api := router.Group("/api")
	{
		api.GET("/search", searchHandler.Search)
		api.GET("/health", searchHandler.HealthCheck)

		api.POST("/download", downloadHandler.StartDownload)
		api.GET("/download/progress/:videoId", downloadHandler.GetProgress)
		api.GET("/downloads", downloadHandler.ListDownloads)
		api.DELETE("/downloads", downloadHandler.ClearHistory)

		api.GET("/collections", collectionHandler.ListCollections)
		api.POST("/collections", collectionHandler.CreateCollection)
		api.GET("/collections/:name", collectionHandler.GetCollection)
		api.DELETE("/collections/:name", collectionHandler.DeleteCollection)
		api.POST("/collections/:name/videos", collectionHandler.AddVideo)
		api.DELETE("/collections/:name/videos/:filename", collectionHandler.RemoveVideo)
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.Timeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.Timeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server stopped")
}
