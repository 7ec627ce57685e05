package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ideahub/ideahub-server/internal/api"
	"github.com/ideahub/ideahub-server/internal/config"
	"github.com/ideahub/ideahub-server/internal/projects"
	"github.com/ideahub/ideahub-server/internal/ratelimit"
	"github.com/ideahub/ideahub-server/internal/repository"
	"github.com/ideahub/ideahub-server/internal/service"
	"github.com/ideahub/ideahub-server/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger := utils.NewLogger()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Set up Redis (submission rate limiter)
	rdb, err := config.SetupRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to set up redis: %v", err)
	}
	defer rdb.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create the submission limiter and project-creation client
	limiter := ratelimit.NewRedisLimiter(rdb, cfg.Engine.SubmissionLimit, cfg.Engine.SubmissionWindow)
	projectClient := projects.NewClient(cfg.Engine.ProjectServiceURL, cfg.Engine.ProjectServiceTimeout)

	// Create service
	svc := service.NewDefaultService(repo, limiter, projectClient, logger, cfg.Engine)

	// Start the vote-count reconciler
	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	if cfg.Engine.ReconcileInterval > 0 {
		reconciler := service.NewReconciler(repo, logger, cfg.Engine.ReconcileInterval)
		go reconciler.Run(reconcilerCtx)
	}

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
