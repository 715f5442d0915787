package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/chvishal182/finance-panorama/internal/auth"
	"github.com/chvishal182/finance-panorama/shared/config"
	"github.com/chvishal182/finance-panorama/shared/events"
	"github.com/chvishal182/finance-panorama/shared/middleware"
	redisclient "github.com/chvishal182/finance-panorama/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"
)

func main() {
	middleware.MustInitJWTSecret()

	cfg := config.Load("auth-service")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := retry.Do(ctx, retry.WithMaxRetries(5, retry.NewExponential(time.Second)), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var redis *redisclient.Client
	if err := retry.Do(ctx, retry.WithMaxRetries(5, retry.NewExponential(time.Second)), func(ctx context.Context) error {
		var connErr error
		redis, connErr = redisclient.NewClient(cfg.RedisAddr, "", cfg.RedisDB)
		if connErr != nil {
			return retry.RetryableError(connErr)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	publisher := events.NewPublisher(redis.Client)
	credentials := auth.NewCredentialRepository(db)
	tokens := auth.NewTokenRepository(db)
	svc := auth.NewService(credentials, tokens, publisher)

	handler := auth.NewHandler(svc)

	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())
	handler.RegisterRoutes(router)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Printf("Auth service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
