// Package routes defines the API routing configuration.
// It wires repositories, services and handlers together and groups
// endpoints by the role allowed to call them.
package routes

import (
	"dwallet/internal/handlers"
	"dwallet/internal/middleware"
	"dwallet/internal/models"
	"dwallet/internal/repositories"
	"dwallet/internal/services/auth"
	"dwallet/internal/services/fee"
	"dwallet/internal/services/limit"
	"dwallet/internal/services/pin"
	"dwallet/internal/services/settlement"
	"dwallet/internal/services/transaction"
	"dwallet/internal/services/user"
	"dwallet/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	store := repositories.NewStore(db)
	pinGuard := pin.NewGuard(pin.NewBcryptHasher(0))

	authService := auth.NewService(store)
	walletService := wallet.NewService(store, repositories.CacheService, pinGuard)
	userService := user.NewService(store, walletService)
	transactionService := transaction.NewService(db)
	settlementService := settlement.NewService(
		store,
		pinGuard,
		fee.NewPolicy(),
		limit.NewChecker(),
		repositories.CacheService,
	)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	walletHandler := handlers.NewWalletHandler(walletService)
	transactionHandler := handlers.NewTransactionHandler(settlementService, transactionService, walletService)

	api := app.Group("/api")

	// Public endpoints
	api.Post("/register", userHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	app.Get("/health", handlers.Health)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	protected := api.Use(authMiddleware.Handler)

	protected.Post("/logout", authHandler.Logout)

	// Wallet routes (any authenticated role)
	walletGroup := protected.Group("/wallet")
	walletGroup.Get("/me", walletHandler.GetMyWallet)
	walletGroup.Get("/me/stats", walletHandler.GetMyStats)
	walletGroup.Get("/number/:number", walletHandler.GetByNumber)
	walletGroup.Post("/verify-pin", walletHandler.VerifyPin)
	walletGroup.Post("/change-pin", walletHandler.ChangePin)

	// Settlement operations
	txGroup := protected.Group("/transactions")
	txGroup.Post("/deposit", transactionHandler.Deposit)
	txGroup.Post("/transfer", transactionHandler.Transfer)
	txGroup.Post("/withdraw", transactionHandler.Withdraw)
	txGroup.Post("/cash-out", transactionHandler.CashOut)
	txGroup.Post("/cash-in",
		middleware.RequireRoles(models.RoleAgent), transactionHandler.CashIn)

	// Ledger reads
	txGroup.Get("/me", transactionHandler.MyTransactions)
	txGroup.Get("/:txnId", transactionHandler.GetByID)

	// Agent routes
	agent := protected.Group("/agent", middleware.RequireRoles(models.RoleAgent))
	agent.Get("/overview", transactionHandler.AgentOverview)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.Get("/wallets", walletHandler.List)
	admin.Patch("/wallets/:id/status", walletHandler.UpdateStatus)
	admin.Patch("/wallets/:id/limits", walletHandler.UpdateLimits)
	admin.Get("/transactions", transactionHandler.List)
	admin.Post("/transactions/refund", transactionHandler.Refund)
	admin.Post("/agents/:id/approve", userHandler.ApproveAgent)
	admin.Get("/settings", walletHandler.GetSettings)
	admin.Patch("/settings", walletHandler.AdjustSettings)
}
