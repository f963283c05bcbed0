package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ehrm-server/config"
	"ehrm-server/database"
	"ehrm-server/jobs"
	"ehrm-server/middleware"
	"ehrm-server/routes"
	"ehrm-server/services"
	ws "ehrm-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database (runs migrations)
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Seed default notification templates and shifts
	seedDefaults()

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security middleware stack
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.AuditLogMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "E-HRM server is running",
			"time":    time.Now().UTC(),
		})
	})

	// Wire the approval engine and notification dispatcher
	hub := ws.NewHub()
	go hub.Run()

	pushClient := services.NewExpoPushClient(config.AppConfig.Notification.ExpoPushURL)
	notificationService := services.NewNotificationService(database.NewNotificationStore(database.DB), pushClient)
	notificationService.SetPublisher(hub)

	approvalEngine := services.NewApprovalEngine(
		database.NewApprovalStore(database.DB),
		notificationService,
		config.AppConfig.Notification.NotifyEachLevel,
	)

	routes.Init(approvalEngine, notificationService)

	// Live notification stream
	router.GET("/api/v1/ws/notifications", middleware.AuthMiddleware(), func(c *gin.Context) {
		ws.ServeWebSocket(hub, c.Writer, c.Request, c.GetUint("user_id"))
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (no authentication required) - with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.RegisterProtectedAuthRoutes(protected.Group("/auth"))
			routes.RegisterAttendanceRoutes(protected.Group("/attendance"))
			routes.RegisterLeaveRoutes(protected.Group("/leave-requests"))
			routes.RegisterDaySwapRoutes(protected.Group("/day-swaps"))
			routes.RegisterVisitRoutes(protected.Group("/client-visits"))
			routes.RegisterApprovalRoutes(protected.Group("/approvals"))
			routes.RegisterAgendaRoutes(protected.Group("/agendas"))
			routes.RegisterNotificationRoutes(protected.Group("/notifications"))

			// Management routes gated by role capability
			employees := protected.Group("/admin/employees")
			employees.Use(middleware.Authorize(middleware.ActionManageEmployees))
			routes.RegisterEmployeeAdminRoutes(employees)

			shifts := protected.Group("/admin/shifts")
			shifts.Use(middleware.Authorize(middleware.ActionManageShifts))
			routes.RegisterShiftRoutes(shifts)

			templates := protected.Group("/admin/notification-templates")
			templates.Use(middleware.Authorize(middleware.ActionManageTemplates))
			routes.RegisterTemplateAdminRoutes(templates)

			dashboard := protected.Group("/admin/dashboard")
			dashboard.Use(middleware.Authorize(middleware.ActionViewDashboard))
			routes.RegisterDashboardRoutes(dashboard)
		}
	}

	// Background jobs
	reminderJob := jobs.NewReminderJob(approvalEngine)
	reminderJob.Start()
	defer reminderJob.Stop()

	// Start server
	port := config.AppConfig.Server.Port
	log.Printf("🚀 E-HRM server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
