package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/condo-ledger/internal/api"
	"github.com/rongwang/condo-ledger/internal/config"
	"github.com/rongwang/condo-ledger/internal/repository"
	"github.com/rongwang/condo-ledger/internal/service"
	"github.com/rongwang/condo-ledger/internal/storage"
	"github.com/rongwang/condo-ledger/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewSQLRepository(db)

	blobs, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to set up attachment storage: %v", err)
	}

	// Create service
	svc := service.NewDefaultService(repo, blobs, service.LogMailer{Logger: logger}, logger, cfg)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	router := gin.New()
	router.Use(utils.RequestLogger(logger), gin.Recovery())
	router.Use(api.CORS(cfg.Server.AllowedOrigins))

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Infof("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
