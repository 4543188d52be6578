// Package routes defines the API routing configuration: dependency wiring,
// route groups and the middleware applied to each.
package routes

import (
	"time"

	"pavo/internal/config"
	"pavo/internal/handlers"
	"pavo/internal/metrics"
	"pavo/internal/middleware"
	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/approval"
	"pavo/internal/services/gateway"
	"pavo/internal/services/notification"
	"pavo/internal/services/payment"
	"pavo/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRoutes wires repositories, services and handlers and registers all
// application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	paymentRepo := repositories.NewPaymentRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	walletService := wallet.NewService(
		walletRepo,
		repositories.CacheService,
		wallet.Config{},
		metrics.WalletCollector{},
	)

	creds := config.LoadGatewayCredentials()
	registry := gateway.BuildRegistry(creds, walletService, nil)
	notifier := notification.NewService()

	paymentService := payment.NewService(payment.Deps{
		Payments:        paymentRepo,
		Bookings:        bookingRepo,
		Audits:          auditRepo,
		Ledger:          walletService,
		Registry:        registry,
		Cache:           repositories.CacheService,
		Notifier:        notifier,
		Metrics:         metrics.PaymentCollector{},
		InitiateTimeout: creds.InitiateTimeout,
	})

	approvalService := approval.NewService(
		db,
		paymentRepo,
		bookingRepo,
		walletRepo,
		auditRepo,
		notifier,
		metrics.PaymentCollector{},
	)

	paymentHandler := handlers.NewPaymentHandler(paymentService)
	walletHandler := handlers.NewWalletHandler(walletService)
	adminHandler := handlers.NewAdminHandler(approvalService, auditRepo)

	// Unauthenticated operational endpoints.
	app.Get("/api/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := middleware.NewAuthMiddleware()
	api := app.Group("/api", auth.Handler)

	payments := api.Group("/payments")
	payments.Post("/",
		createLimiter(),
		middleware.HasPermission(models.PermissionPaymentWrite),
		paymentHandler.CreatePayment,
	)
	payments.Get("/", middleware.HasPermission(models.PermissionPaymentRead), paymentHandler.ListPayments)
	payments.Get("/:id", middleware.HasPermission(models.PermissionPaymentRead), paymentHandler.GetPayment)
	payments.Patch("/:id", paymentHandler.UpdatePayment)
	payments.Patch("/:id/approve",
		middleware.AdminAuthMiddleware,
		middleware.HasPermission(models.PermissionPaymentApprove),
		adminHandler.DecidePayment,
	)
	payments.Post("/:id/refund",
		middleware.AdminAuthMiddleware,
		middleware.HasPermission(models.PermissionPaymentRefund),
		adminHandler.RefundPayment,
	)
	payments.Get("/:id/audit", middleware.AdminAuthMiddleware, adminHandler.ListAuditTrail)

	walletGroup := api.Group("/wallet")
	walletGroup.Get("/balance", middleware.HasPermission(models.PermissionWalletRead), walletHandler.GetBalance)
	walletGroup.Get("/transactions", middleware.HasPermission(models.PermissionWalletRead), walletHandler.ListTransactions)
}

// createLimiter throttles payment creation per client IP. Retries with an
// idempotency key are cheap, but unbounded creation is not.
func createLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GetIntEnv("PAYMENT_CREATE_RATE_LIMIT", 10),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}
