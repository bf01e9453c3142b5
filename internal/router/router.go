package router

import (
	"time"

	"github.com/leadplay/campaign-services-backend/internal/handlers"
	"github.com/leadplay/campaign-services-backend/internal/middleware"
	"github.com/leadplay/campaign-services-backend/internal/services"
	"github.com/leadplay/campaign-services-backend/internal/services/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with the owner and public API routes
func SetupRouter(db *gorm.DB, syncService *services.CRMSyncService) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create services
	authService := auth.NewAuthService(db)

	// Create middleware with services
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(db)

	// Create handlers with services
	authHandler := handlers.NewAuthHandler(authService)
	campaignHandler := handlers.NewCampaignHandler(db)
	participationHandler := handlers.NewParticipationHandler(db, syncService)
	publicHandler := handlers.NewPublicHandler(db, syncService)
	integrationHandler := handlers.NewIntegrationHandler(db)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.RefreshToken)
		}

		// Participation-page routes (public, keyed by campaign slug)
		public := api.Group("/public/campaigns/:slug")
		{
			public.GET("", publicHandler.GetCampaign)
			public.POST("/view", publicHandler.TrackView)
			public.POST("/validate", publicHandler.ValidateParticipation)
			public.POST("/participate", publicHandler.Participate)
			public.POST("/result", publicHandler.UpdateResult)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			// Auth protected routes
			authProtected := protected.Group("/auth")
			{
				authProtected.POST("/logout", authHandler.Logout)
				authProtected.GET("/profile", authHandler.GetProfile)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("", campaignHandler.GetCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.PUT("/:id", campaignHandler.UpdateCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
				campaigns.POST("/:id/publish", campaignHandler.PublishCampaign)
				campaigns.POST("/:id/archive", campaignHandler.ArchiveCampaign)
				campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
				campaigns.GET("/:id/export", campaignHandler.ExportParticipations)
				campaigns.GET("/:id/participations", participationHandler.GetParticipations)
			}

			// Integration routes
			integrations := protected.Group("/integrations")
			{
				integrations.POST("", integrationHandler.ConnectIntegration)
				integrations.GET("", integrationHandler.GetIntegrations)
				integrations.DELETE("/:id", integrationHandler.DisconnectIntegration)
				integrations.GET("/:id/sync-logs", integrationHandler.GetSyncLogs)
			}
		}
	}

	return r
}
