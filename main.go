package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roadassist/roadassist-api/config"
	"github.com/roadassist/roadassist-api/controllers"
	"github.com/roadassist/roadassist-api/logging"
	"github.com/roadassist/roadassist-api/middleware"
	"github.com/roadassist/roadassist-api/models"
	"github.com/roadassist/roadassist-api/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, flush := logging.New(cfg.LogLevel, cfg.LogJSON)
	defer flush()

	logger.Info("Starting RoadAssist API server", zap.String("env", cfg.GoEnv))

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	db := config.GetDB()
	if err := db.AutoMigrate(&models.User{}, &models.ServiceRequest{}); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migration completed successfully")

	services.InitTokenService(cfg)

	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			logger.Fatal("Failed to initialize S3", zap.Error(err))
		}
		services.InitImageService(s3Service)
	} else {
		logger.Warn("AWS_S3_BUCKET not set, photo uploads are disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(logger)

	addr := ":" + cfg.Port
	logger.Info("Server is running", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// setupRouter builds the Gin engine with all middleware and routes.
// Separated from main so tests can mount the real routing table.
func setupRouter(logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if logger != nil {
		router.Use(middleware.AccessLog(logger))
	}
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
	}))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
		}

		user := v1.Group("/user", middleware.RequireAuth())
		{
			user.GET("/profile", controllers.GetProfile)
			user.PUT("/profile", controllers.UpdateProfile)
		}

		requests := v1.Group("/service-requests")
		{
			requests.GET("", middleware.RequireAuth(), controllers.ListServiceRequests)
			requests.POST("", middleware.RequireAuth(models.RoleUser), controllers.CreateServiceRequest)
			requests.PUT("/:id", middleware.RequireAuth(models.RoleMechanic), controllers.UpdateServiceRequest)
			requests.PATCH("/:id", middleware.RequireAuth(models.RoleMechanic), controllers.HandleServiceRequestAction)
			requests.POST("/:id/images", middleware.RequireAuth(models.RoleUser), controllers.UploadRequestImage)
		}

		admin := v1.Group("/admin", middleware.RequireAuth(models.RoleAdmin))
		{
			admin.GET("/service-requests", controllers.ListAdminServiceRequests)
			admin.POST("/service-requests", controllers.ClaimServiceRequest)
			admin.PUT("/service-requests", controllers.AssignToEmployee)

			admin.GET("/employees", controllers.ListEmployees)
			admin.POST("/employees", controllers.CreateEmployee)
			admin.PUT("/employees", controllers.UpdateEmployee)
			admin.DELETE("/employees", controllers.DeleteEmployee)
			admin.GET("/employees/statistics", controllers.GetEmployeeStatistics)

			admin.GET("/analytics", controllers.GetAnalytics)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "RoadAssist API is running",
	})
}

// databaseStatus checks database connectivity
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
	})
}
