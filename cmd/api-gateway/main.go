package main

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/chvishal182/finance-panorama/shared/middleware"
	"github.com/gin-gonic/gin"
)

var (
	authServiceURL    = getEnv("AUTH_SERVICE_URL", "http://localhost:8081")
	userServiceURL    = getEnv("USER_SERVICE_URL", "http://localhost:8082")
	expenseServiceURL = getEnv("EXPENSE_SERVICE_URL", "http://localhost:8083")
)

func main() {
	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "api-gateway"})
	})

	// Auth routes (no authentication required)
	router.POST("/auth/v1/signup", proxyTo(authServiceURL))
	router.POST("/auth/v1/login", proxyTo(authServiceURL))
	router.POST("/auth/v1/refresh", proxyTo(authServiceURL))
	router.GET("/ping", proxyTo(authServiceURL))

	// Profile routes
	router.POST("/user/v1/upsert", middleware.AuthMiddleware(), proxyTo(userServiceURL))
	router.GET("/users/v1/getUser", middleware.AuthMiddleware(), proxyTo(userServiceURL))

	// Expense routes. The authenticated user id travels as X-User-Id
	router.GET("/expense/v1/getExpense", middleware.AuthMiddleware(), proxyTo(expenseServiceURL))
	router.POST("/expense/v1/addExpense", middleware.AuthMiddleware(), proxyTo(expenseServiceURL))
	router.PUT("/expense/v1/updateExpense", middleware.AuthMiddleware(), proxyTo(expenseServiceURL))

	port := getEnv("PORT", "8080")
	log.Printf("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func proxyTo(serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Build target URL
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		// Read request body
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		// Create new request
		req, err := http.NewRequest(c.Request.Method, targetURL, bytes.NewBuffer(bodyBytes))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create request"})
			return
		}

		// Copy headers
		for key, values := range c.Request.Header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		// Forward user context from JWT middleware if authenticated
		if userID, exists := c.Get("userId"); exists {
			req.Header.Set("X-User-Id", userID.(string))
		}
		if email, exists := c.Get("email"); exists {
			req.Header.Set("X-User-Email", email.(string))
		}

		// Make request
		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			log.Printf("Error proxying request: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"message": "Service unavailable"})
			return
		}
		defer resp.Body.Close()

		// Read response
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to read response"})
			return
		}

		// Copy response headers
		for key, values := range resp.Header {
			for _, value := range values {
				c.Header(key, value)
			}
		}

		// Forward response
		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		// Remove trailing slash if present
		return strings.TrimSuffix(value, "/")
	}
	return fallback
}
