// File: /routes/routes.go
package routes

import (
	"eldtrip-api/config"
	"eldtrip-api/controllers"
	"eldtrip-api/middleware"
	"eldtrip-api/repositories"
	"eldtrip-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, emailService *services.EmailService) {
	// Services
	geocoder := services.NewNominatimGeocoder(cfg.NominatimURL, cfg.GeocodeUserAgent)
	planner := services.NewRoutePlanner(geocoder, services.SystemClock(), cfg.AverageSpeedMph)
	eld := services.NewELDService(cfg.AverageSpeedMph)
	tripRepo := repositories.NewTripRepository(db)

	// Controllers
	authController := controllers.NewAuthController(db, cfg.JWTSecret, emailService)
	userController := controllers.NewUserController(db)
	tripController := controllers.NewTripController(db, planner, eld, tripRepo)
	logController := controllers.NewLogController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	v1.Use(middleware.ValidateJSON())

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Auth routes (public) - rate limited to slow down credential stuffing
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(30, 10))
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
		auth.POST("/verify-code", authController.VerifyCode)
		auth.POST("/resend-verification", authController.ResendVerificationCode)
	}

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// User routes
		users := protected.Group("/users")
		{
			users.GET("/profile", userController.GetProfile)
			users.PUT("/profile", userController.UpdateProfile)
		}

		// Trip routes
		trips := protected.Group("/trips")
		{
			trips.GET("/", tripController.List)
			trips.POST("/", tripController.Create)
			trips.GET("/:id", tripController.Get)
			trips.PUT("/:id", tripController.Update)
			trips.DELETE("/:id", tripController.Delete)
			trips.POST("/:id/recalculate", tripController.Recalculate)
			trips.GET("/:id/compliance", tripController.Compliance)
			trips.GET("/:id/available-hours", tripController.AvailableHours)
			trips.GET("/:id/stops", tripController.GetStops)
			trips.GET("/:id/waypoints", tripController.GetWaypoints)
		}

		// Daily log routes
		logs := protected.Group("/logs")
		{
			logs.GET("/", logController.List)
			logs.GET("/:id", logController.Get)
			logs.POST("/:id/recalculate-totals", logController.RecalculateTotals)
		}
	}
}
