package routes

import (
	"log"
	"os"

	"dealdesk/config"
	controller "dealdesk/controllers"
	"dealdesk/middleware"
	"dealdesk/realtime"
	"dealdesk/wizard"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize logger
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, hub *realtime.Hub, cache *realtime.Cache, appLogger *logrus.Logger) {
	dealController := controller.NewDealController(db, hub, log.New(os.Stdout, "DEAL: ", log.LstdFlags))
	stageController := controller.NewStageController(db, hub, log.New(os.Stdout, "STAGE: ", log.LstdFlags))
	analyticsController := controller.NewAnalyticsController(db, cache, log.New(os.Stdout, "ANALYTICS: ", log.LstdFlags))
	listingController := controller.NewListingController(db, hub, log.New(os.Stdout, "LISTING: ", log.LstdFlags))
	notificationController := controller.NewNotificationController(db, hub, log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))
	hrController := controller.NewHRController(db, log.New(os.Stdout, "HR: ", log.LstdFlags))
	uploadController := controller.NewUploadController(log.New(os.Stdout, "UPLOAD: ", log.LstdFlags))

	var drafts wizard.DraftStore
	if config.Redis != nil {
		drafts = wizard.NewRedisDraftStore(config.Redis)
	} else {
		drafts = wizard.NewMemoryDraftStore()
	}
	submissionController := controller.NewSubmissionController(db, hub, drafts, appLogger)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Deal routes
	deal := api.Group("/deals")
	deal.Post("/", dealController.CreateDeal)
	deal.Get("/", dealController.GetDeals)
	deal.Get("/export", dealController.ExportDeals)
	deal.Post("/import", dealController.ImportDeals)
	deal.Get("/:id", dealController.GetDeal)
	deal.Put("/:id", dealController.UpdateDeal)
	deal.Put("/:id/stage", dealController.ChangeStage)
	deal.Delete("/:id", dealController.DeleteDeal)

	// Stage routes; mutations are admin and broker only
	stage := api.Group("/stages")
	stage.Get("/", stageController.GetStages)
	stage.Post("/", middleware.RequireRole("admin", "broker"), stageController.CreateStage)
	stage.Put("/reorder", middleware.RequireRole("admin", "broker"), stageController.ReorderStages)
	stage.Put("/:id", middleware.RequireRole("admin", "broker"), stageController.UpdateStage)
	stage.Delete("/:id", middleware.RequireRole("admin", "broker"), stageController.DeleteStage)

	// Analytics routes
	analytics := api.Group("/analytics")
	analytics.Get("/pipeline", analyticsController.GetPipelineSummary)
	analytics.Get("/closing", analyticsController.GetClosingDeals)

	// Listing routes
	listing := api.Group("/listings")
	listing.Post("/", listingController.CreateListing)
	listing.Get("/", listingController.GetListings)
	listing.Get("/:id", listingController.GetListing)
	listing.Put("/:id", listingController.UpdateListing)
	listing.Delete("/:id", listingController.DeleteListing)
	listing.Post("/:id/agents", listingController.AssignAgent)
	listing.Delete("/:id/agents/:userId", listingController.RemoveAgent)

	// Exclusive submission routes; the wizard mutations are rate limited
	// because the client autosaves aggressively
	submission := api.Group("/submissions")
	submission.Get("/", submissionController.GetSubmissions)
	submission.Get("/:id", submissionController.GetSubmission)
	submission.Put("/:id/review", middleware.RequireRole("admin"), submissionController.ReviewSubmission)

	wiz := api.Group("/submissions/wizard/:division", middleware.SubmissionRateLimiter())
	wiz.Get("/", submissionController.GetWizardState)
	wiz.Put("/form", submissionController.UpdateWizardForm)
	wiz.Post("/next", submissionController.WizardNext)
	wiz.Post("/back", submissionController.WizardBack)
	wiz.Post("/submit", submissionController.WizardSubmit)

	// Notification routes
	notification := api.Group("/notifications")
	notification.Get("/", notificationController.GetNotifications)
	notification.Put("/read-all", notificationController.MarkAllRead)
	notification.Put("/:id/read", notificationController.MarkRead)
	notification.Delete("/:id", notificationController.DeleteNotification)

	// HR recruiting routes, admin and broker only
	hr := api.Group("/hr", middleware.RequireRole("admin", "broker"))
	hr.Post("/candidates", hrController.CreateCandidate)
	hr.Get("/candidates", hrController.GetCandidates)
	hr.Get("/candidates/:id", hrController.GetCandidate)
	hr.Put("/candidates/:id/status", hrController.UpdateCandidateStatus)
	hr.Post("/candidates/:id/interviews", hrController.ScheduleInterview)
	hr.Put("/candidates/:id/interviews/:interviewId/outcome", hrController.RecordInterviewOutcome)
	hr.Post("/candidates/:id/offers", hrController.ExtendOffer)
	hr.Post("/candidates/:id/contracts", hrController.SignContract)

	// Upload routes
	api.Post("/uploads/:category", uploadController.Upload)

	// WebSocket route for realtime change events. The JWT middleware has
	// already resolved the user by the time the upgrade runs.
	app.Get("/api/v1/events", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("userID").(uint)
		hub.HandleWS(c, userID)
	}))

	// Serve uploaded documents
	app.Static("/uploads", config.AppConfig.UploadDir)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *realtime.Hub, cache *realtime.Cache, appLogger *logrus.Logger) {
	// Initialize Google OAuth
	controller.InitGoogleOAuth()

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"subscribers": hub.SubscriberCount(),
		})
	})

	// Setup auth routes
	SetupAuthRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db, hub, cache, appLogger)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
