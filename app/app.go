// File: app/app.go
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vidstream-api/config"
	"vidstream-api/db"
	"vidstream-api/handler"
	"vidstream-api/logger"
	"vidstream-api/repository"
	"vidstream-api/router"
	"vidstream-api/service"
	"vidstream-api/storage"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running database migrations: %v", err)
	}

	// The revocation list is optional; without Redis the gate uses the noop
	// implementation and access tokens are only bounded by their expiry.
	var revoker service.TokenRevoker = service.NoopRevoker{}
	if config.AppConfig.Redis.Host != "" {
		redisClient, err := db.ConnectRedis()
		if err != nil {
			logger.Log.Fatalf("Error connecting to redis: %v", err)
		}
		defer redisClient.Close()
		revoker = service.NewRedisRevoker(redisClient)
	}

	blobStore, err := storage.NewS3Store(config.AppConfig)
	if err != nil {
		logger.Log.Fatalf("Error initializing blob store: %v", err)
	}

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	authService := service.NewAuthService(
		userRepo,
		config.AppConfig.JWT.AccessSecret,
		config.AppConfig.JWT.RefreshSecret,
		time.Duration(config.AppConfig.JWT.AccessTTLMins)*time.Minute,
		time.Duration(config.AppConfig.JWT.RefreshTTLDays)*24*time.Hour,
	)
	userService := service.NewUserService(userRepo, authService, blobStore)
	userHandler := handler.NewUserHandler(userService)
	authMW := handler.NewAuthMiddleware(authService, userRepo, revoker)

	r := router.NewRouter(userHandler, authMW, config.AppConfig.Server.CORSOrigin)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
