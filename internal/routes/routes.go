package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/paygate/internal/config"
	"github.com/example/paygate/internal/handlers"
	"github.com/example/paygate/internal/middleware"
	"github.com/example/paygate/internal/services"
	"github.com/example/paygate/internal/store"
)

// NewApp builds the fiber application with middleware and routes wired.
func NewApp(cfg *config.Config, sessions *store.SessionStore, ledger store.ReceiptLedger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Paygate Backend",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	Register(app, cfg, sessions, ledger)

	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, sessions *store.SessionStore, ledger store.ReceiptLedger) {
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	gateway := services.NewSaferpayService(cfg)
	payments := services.NewPaymentService(cfg, gateway, sessions, ledger, telegram)
	resolver := services.NewReturnResolver(sessions)

	paymentHandler := handlers.NewPaymentHandler(payments, resolver)
	adminHandler := handlers.NewAdminHandler(cfg)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", adminHandler.Login)

	pay := api.Group("/payments")
	pay.Post("/init", paymentHandler.Init)
	pay.Post("/assert", paymentHandler.Assert)
	pay.Post("/capture", paymentHandler.Capture)
	pay.Get("/return/success", paymentHandler.ReturnSuccess)
	pay.Get("/return/fail", paymentHandler.ReturnFail)
	pay.Get("/return/abort", paymentHandler.ReturnAbort)
	pay.Post("/notification", paymentHandler.Notification)
	pay.Get("/transaction/:id", paymentHandler.GetTransaction)
	pay.Get("/transactions", middleware.AuthMiddleware(cfg), paymentHandler.ListTransactions)
}

// errorHandler renders every handler error as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
