package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Fredric505/taller-api/config"
	"github.com/Fredric505/taller-api/controllers"
	"github.com/Fredric505/taller-api/middleware"
	"github.com/Fredric505/taller-api/models"
	"github.com/Fredric505/taller-api/services"
)

func main() {
	log.Println("Starting Taller API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetConfig(cfg)

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Workshop{},
		&models.User{},
		&models.Employee{},
		&models.Repair{},
		&models.EarningRecord{},
		&models.EmployeeLoan{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Wire the domain services
	services.InitPayrollService(services.NewPayrollCache(cfg))
	services.InitLifecycleService()

	if _, err := services.InitNotificationService(cfg); err != nil {
		log.Warnf("Telegram notifications disabled: %v", err)
	}

	s3Service, err := services.InitS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	services.InitPhotoService(s3Service)

	router := setupRouter(cfg)

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the gin engine with CORS, auth and all route groups
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	{
		// Public endpoints
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
		v1.POST("/workshops/register", controllers.RegisterWorkshop)

		// Authenticated, pre-profile: the token is valid but the user row
		// may not exist yet
		authed := v1.Group("")
		authed.Use(middleware.EnsureValidToken(cfg))
		{
			authed.POST("/users", controllers.CreateUser)
			authed.GET("/users/me", controllers.GetMyProfile)
			authed.PUT("/users/me", controllers.UpdateMyProfile)
		}

		// Workshop-scoped endpoints: valid token, resolved user, live
		// subscription
		workshop := v1.Group("")
		workshop.Use(middleware.EnsureValidToken(cfg), middleware.ResolveUser(), middleware.RequireSubscription())
		{
			workshop.POST("/repairs", controllers.CreateRepair)
			workshop.GET("/repairs", controllers.ListRepairs)
			workshop.GET("/repairs/:id", controllers.GetRepair)
			workshop.PUT("/repairs/:id", controllers.UpdateRepair)
			workshop.POST("/repairs/:id/advance", controllers.AdvanceRepairStatus)
			workshop.POST("/repairs/:id/photos/:slot", controllers.UploadDevicePhoto)
			workshop.GET("/repairs/:id/photos/:slot", controllers.GetDevicePhotoURL)

			workshop.GET("/earnings", controllers.ListMyEarnings)
			workshop.GET("/earnings/summary", controllers.GetPeriodSummary)

			// Owner-only management
			admin := workshop.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.DELETE("/repairs/:id", controllers.DeleteRepair)

				admin.POST("/employees", controllers.CreateEmployee)
				admin.GET("/employees", controllers.ListEmployees)
				admin.PUT("/employees/:id", controllers.UpdateEmployee)
				admin.DELETE("/employees/:id", controllers.DeactivateEmployee)
				admin.GET("/employees/:id/profitability", controllers.GetEmployeeProfitability)

				admin.POST("/loans", controllers.CreateLoan)
				admin.GET("/loans", controllers.ListLoans)
				admin.POST("/loans/:id/pay", controllers.MarkLoanPaid)
			}
		}

		// Platform console endpoints
		superadmin := v1.Group("/admin")
		superadmin.Use(middleware.EnsureValidToken(cfg), middleware.ResolveUser(), middleware.RequireSuperadmin())
		{
			superadmin.GET("/workshops", controllers.ListWorkshops)
			superadmin.PUT("/workshops/:id/subscription", controllers.UpdateWorkshopSubscription)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Taller API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
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

	// Ping the database to verify connection
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

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
