package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"groscales/config"
	controller "groscales/controllers"
	"groscales/middleware"
	"groscales/repository"
	"groscales/services"
	"groscales/sms"
	"groscales/utils"
)

// Dependencies is everything the HTTP layer needs, built once by main.
type Dependencies struct {
	Config           *config.Config
	Repos            *repository.Repositories
	Services         *services.Services
	Hub              *utils.ThreadHub
	Queue            controller.RunQueue
	RateLimitStorage fiber.Storage
	Logger           logrus.FieldLogger
}

var requestLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

func SetupAuthRoutes(app *fiber.App, deps Dependencies) {
	authController := controller.NewAuthController(deps.Repos.Users, deps.Config.JWTSecret, deps.Logger)

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: requestLogFormat,
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)

	// Protected auth endpoints (require valid JWT)
	auth.Get("/me", middleware.Protected(deps.Repos.Users, deps.Config.JWTSecret), authController.Me)

	deps.Logger.Debug("Authentication routes initialized")
}

// SetupWebhookRoutes mounts the provider callbacks. They are unauthenticated
// apart from the optional signature check.
func SetupWebhookRoutes(app *fiber.App, deps Dependencies) {
	webhookController := controller.NewWebhookController(deps.Services.Inbound, deps.Services.Status, deps.Logger)

	handlers := []fiber.Handler{}
	if deps.Config.Twilio.ValidateWebhooks {
		validator := sms.NewSignatureValidator(deps.Config.Twilio.AuthToken)
		handlers = append(handlers, middleware.TwilioSignature(validator, deps.Config.PublicBaseURL, deps.Logger))
	}

	twilio := app.Group("/webhooks/twilio", handlers...)
	twilio.Post("/inbound", webhookController.HandleInbound)
	twilio.Post("/status", webhookController.HandleStatus)

	deps.Logger.WithField("signature_validation", deps.Config.Twilio.ValidateWebhooks).
		Debug("Webhook routes initialized")
}

func SetupAPIRoutes(app *fiber.App, deps Dependencies) {
	region := deps.Config.DefaultPhoneRegion

	leadController := controller.NewLeadController(deps.Repos.Leads, region, deps.Logger)
	phoneNumberController := controller.NewPhoneNumberController(deps.Repos.PhoneNumbers, region, deps.Logger)
	workflowController := controller.NewWorkflowController(deps.Repos.Workflows, deps.Repos.Leads, deps.Queue, deps.Logger)
	messageController := controller.NewMessageController(deps.Services.Messages, deps.Logger)
	threadController := controller.NewThreadController(deps.Repos.Threads, deps.Repos.Messages, deps.Services.Drafts, deps.Hub, deps.Logger)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(deps.Repos.Users, deps.Config.JWTSecret), logger.New(logger.Config{
		Format: requestLogFormat,
	}))

	// Lead routes
	lead := api.Group("/leads")
	lead.Post("/", leadController.CreateLead)
	lead.Get("/", leadController.GetLeads)
	lead.Get("/:id", leadController.GetLead)
	lead.Put("/:id", leadController.UpdateLead)
	lead.Delete("/:id", leadController.DeleteLead)

	// Sending numbers
	numbers := api.Group("/phone-numbers")
	numbers.Get("/", phoneNumberController.List)
	numbers.Post("/", phoneNumberController.Create)
	numbers.Put("/:id/default", phoneNumberController.SetDefault)

	// Workflow routes
	workflow := api.Group("/workflows")
	workflow.Post("/", workflowController.CreateWorkflow)
	workflow.Get("/", workflowController.GetWorkflows)
	workflow.Get("/:id", workflowController.GetWorkflow)
	workflow.Put("/:id", workflowController.UpdateWorkflow)
	workflow.Delete("/:id", workflowController.DeleteWorkflow)
	workflow.Put("/:id/steps", workflowController.ReplaceSteps)
	workflow.Post("/:id/run", workflowController.RunWorkflow)

	// Ad hoc sends with rate limiting
	messages := api.Group("/messages")
	messages.Post("/send", middleware.SendRateLimiter(deps.Config.RateLimitSend, deps.RateLimitStorage, deps.Logger), messageController.SendMessage)

	// Thread routes; the stream must be registered before /:id
	thread := api.Group("/threads")
	thread.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	thread.Get("/stream", websocket.New(threadController.Stream))
	thread.Get("/", threadController.GetThreads)
	thread.Get("/:id/messages", threadController.GetMessages)
	thread.Post("/:id/draft", threadController.Draft)

	deps.Logger.Debug("API routes initialized")
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"dry_run": !deps.Config.Twilio.HasCredentials(),
		})
	})

	SetupAuthRoutes(app, deps)
	SetupWebhookRoutes(app, deps)
	SetupAPIRoutes(app, deps)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
