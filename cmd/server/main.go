package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leadplay/campaign-services-backend/docs"
	"github.com/leadplay/campaign-services-backend/internal/database"
	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/router"
	"github.com/leadplay/campaign-services-backend/internal/services"
	"github.com/leadplay/campaign-services-backend/internal/services/auth"
	"github.com/leadplay/campaign-services-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title LeadPlay Campaign API
// @version 1.0
// @description Gamified lead-generation campaigns with CRM lead sync
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://www.leadplay.io/support
// @contact.email support@leadplay.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Set Swagger base path dynamically
	docs.SwaggerInfo.BasePath = getEnv("BASE_PATH", "/")

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize RabbitMQ service. The broker is optional: without it the CRM
	// fan-out runs in-process instead of through the crm_sync queue.
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
		rabbitMQService = nil
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()
	}

	// Initialize CRM sync service and start the queue consumer
	integrationRepo := repository.NewIntegrationRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)
	syncService := services.NewCRMSyncService(integrationRepo, participationRepo, campaignRepo, syncLogRepo, rabbitMQService)

	if rabbitMQService != nil {
		if err := syncService.StartConsumer(); err != nil {
			logrus.Warnf("Failed to start CRM sync consumer: %v", err)
		} else {
			logrus.Info("CRM sync consumer started")
			defer syncService.StopConsumer()
		}
	}

	// Initialize token cleanup service
	tokenCleanupService := auth.NewTokenCleanupService(db)
	tokenCleanupService.Start()
	defer tokenCleanupService.Stop()

	// Initialize router
	r := router.SetupRouter(db, syncService)

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
