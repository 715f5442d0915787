package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chvishal182/finance-panorama/internal/profile"
	"github.com/chvishal182/finance-panorama/shared/config"
	"github.com/chvishal182/finance-panorama/shared/events"
	"github.com/chvishal182/finance-panorama/shared/middleware"
	"github.com/chvishal182/finance-panorama/shared/models"
	redisclient "github.com/chvishal182/finance-panorama/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"
)

func main() {
	cfg := config.Load("user-service")

	// Database connection (durable store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis connection (cache + event streaming)
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

	// Explicit constructor wiring: store, cache and publisher are handed to
	// the synchronization service, nothing is resolved at runtime.
	publisher := events.NewPublisher(redis.Client)
	repo := profile.NewRepository(db)
	cache := redisclient.NewViewCache[models.Profile](redis.Client, 0)
	svc := profile.NewService(repo, cache, publisher)

	handler := profile.NewHandler(svc)

	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())
	handler.RegisterRoutes(router)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Consume profile events published by the auth service.
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "user-service-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.UserEventsStream,
			Handler:  svc.HandleUserEvent,
		})
		if err := subscriber.Start(subCtx); err != nil {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("User service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
