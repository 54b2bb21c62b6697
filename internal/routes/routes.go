// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"bridgepay/internal/config"
	"bridgepay/internal/handlers"
	"bridgepay/internal/middleware"
	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/services/auth"
	"bridgepay/internal/services/fees"
	"bridgepay/internal/services/kyc"
	"bridgepay/internal/services/rates"
	"bridgepay/internal/services/transaction"
	"bridgepay/internal/services/user"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, db *gorm.DB) transaction.Service {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, repositories.CacheService)
	txnRepo := repositories.NewTransactionRepository(db, repositories.CacheService)
	kycRepo := repositories.NewKYCRepository(db)
	rateRepo := repositories.NewExchangeRateRepository(db)

	// Initialize services
	authService := auth.NewService(userRepo)
	userService := user.NewService(userRepo, repositories.CacheService)
	rateService := rates.NewService(rateRepo, repositories.CacheService, rates.DefaultCacheTTL)
	calculator := fees.NewCalculator()

	txnConfig := transaction.Config{
		MinAmountGBP:  config.GetFloatEnv("MIN_TRANSACTION_GBP", transaction.DefaultMinAmountGBP),
		MaxAmountGBP:  config.GetFloatEnv("MAX_TRANSACTION_GBP", transaction.DefaultMaxAmountGBP),
		PaymentWindow: config.GetDurationEnv("PAYMENT_WINDOW", transaction.DefaultPaymentWindow),
	}
	txnService := transaction.NewService(
		txnRepo,
		userRepo,
		rateService,
		calculator,
		repositories.CacheService,
		txnConfig,
	)

	kycService := kyc.NewService(kycRepo, userRepo, repositories.CacheService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	txnHandler := handlers.NewTransactionHandler(txnService, rateService, calculator)
	kycHandler := handlers.NewKYCHandler(kycService)
	rateHandler := handlers.NewRateHandler(rateService)
	adminHandler := handlers.NewAdminHandler(txnService, kycService, userService, userRepo, kycRepo, txnRepo)

	// Public routes
	api := app.Group("/api")

	api.Post("/register", userHandler.RegisterUser)
	api.Post("/login", authHandler.LoginUser)
	api.Post("/refresh", authHandler.RefreshToken)
	api.Get("/rates/current", rateHandler.GetCurrentRate)
	api.Get("/quote", txnHandler.GetQuote)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to BridgePay API",
			"version": "1.0.0",
			"docs":    "/api",
		})
	})

	// Create middleware instance
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// Protected routes with auth middleware
	protected := api.Use(authMiddleware.Handler)

	setupUserRoutes(protected, userHandler, authHandler, kycHandler, txnHandler)
	setupAdminRoutes(app, adminHandler, authMiddleware)

	return txnService
}

func setupUserRoutes(router fiber.Router, userHandler *handlers.UserHandler, authHandler *handlers.AuthHandler, kycHandler *handlers.KYCHandler, txnHandler *handlers.TransactionHandler) {
	// Account routes
	router.Get("/profile", middleware.HasPermission(models.PermissionUserRead), userHandler.GetProfile)
	router.Put("/profile", middleware.HasPermission(models.PermissionUserRead), userHandler.UpdateProfile)
	router.Post("/accept-terms", userHandler.AcceptTerms)
	router.Post("/change-password", middleware.HasPermission(models.PermissionChangePassword), authHandler.ChangePassword)
	router.Post("/logout", authHandler.LogoutUser)

	// KYC routes
	kycGroup := router.Group("/kyc")
	kycGroup.Post("/submit", middleware.HasPermission(models.PermissionKYCWrite), kycHandler.SubmitKYC)
	kycGroup.Get("/status", middleware.HasPermission(models.PermissionKYCRead), kycHandler.GetKYCStatus)

	// Transaction routes
	txns := router.Group("/transactions")
	txns.Post("/", middleware.HasPermission(models.PermissionTransactionWrite), txnHandler.CreateTransaction)
	txns.Get("/", middleware.HasPermission(models.PermissionTransactionRead), txnHandler.GetUserTransactions)
	txns.Get("/:id", middleware.HasPermission(models.PermissionTransactionRead), txnHandler.GetTransaction)
}

func setupAdminRoutes(app *fiber.App, h *handlers.AdminHandler, authMiddleware *middleware.AuthMiddleware) {
	admin := app.Group("/api/admin", authMiddleware.Handler, middleware.AdminAuthMiddleware)

	// Transaction review
	admin.Get("/transactions", middleware.HasPermission(models.PermissionReadAdmin), h.ListTransactions)
	admin.Post("/transactions/:id/payment-received", middleware.HasPermission(models.PermissionWriteAdmin), h.MarkPaymentReceived)
	admin.Post("/transactions/:id/usdt-sent", middleware.HasPermission(models.PermissionWriteAdmin), h.MarkUSDTSent)
	admin.Post("/transactions/:id/complete", middleware.HasPermission(models.PermissionWriteAdmin), h.CompleteTransaction)
	admin.Post("/transactions/:id/reject", middleware.HasPermission(models.PermissionWriteAdmin), h.RejectTransaction)

	// KYC review
	admin.Get("/kyc/queue", middleware.HasPermission(models.PermissionReadAdmin), h.ListKYCQueue)
	admin.Post("/kyc/:id/approve", middleware.HasPermission(models.PermissionWriteAdmin), h.ApproveKYC)
	admin.Post("/kyc/:id/reject", middleware.HasPermission(models.PermissionWriteAdmin), h.RejectKYC)

	// User administration
	admin.Get("/users", middleware.HasPermission(models.PermissionReadAdmin), h.ListUsers)
	admin.Post("/users/:id/promote", middleware.HasPermission(models.PermissionWriteAdmin), h.PromoteUser)
	admin.Post("/users/:id/demote", middleware.HasPermission(models.PermissionWriteAdmin), h.DemoteUser)
	admin.Delete("/users/:id", middleware.HasPermission(models.PermissionWriteAdmin), h.DeleteUser)

	// Dashboard counters
	admin.Get("/stats", middleware.HasPermission(models.PermissionReadAdmin), h.GetStats)
}
