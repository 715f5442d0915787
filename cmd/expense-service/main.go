package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chvishal182/finance-panorama/internal/expense"
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
	cfg := config.Load("expense-service")

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
	repo := expense.NewRepository(db)
	cache := redisclient.NewViewCache[[]models.Expense](redis.Client, 0)
	markers := expense.NewRedisMarkers(redis.Client)
	svc := expense.NewService(repo, cache, markers, publisher)

	handler := expense.NewHandler(svc)

	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())
	handler.RegisterRoutes(router)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Consume expense events originating from other services.
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "expense-service-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.ExpenseEventsStream,
			Handler:  svc.HandleExpenseEvent,
		})
		if err := subscriber.Start(subCtx); err != nil {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("Expense service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
