package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-inventory-loans/internal/handler"
	"go-inventory-loans/internal/middleware"
	"go-inventory-loans/internal/model"
	"go-inventory-loans/internal/repository"
	"go-inventory-loans/internal/service"
	"go-inventory-loans/internal/ws"
	"go-inventory-loans/pkg/cache"
	"go-inventory-loans/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	db.AutoMigrate(&model.Item{}, &model.LedgerEntry{}, &model.Loan{}, &model.User{}, &model.Feedback{})

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Setup Report Cache (Redis) and WebSocket Hub
	reportCache := cache.NewReportCache()
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	itemRepo := repository.NewItemRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)
	loanRepo := repository.NewLoanRepo(db)
	userRepo := repository.NewUserRepo(db)
	feedbackRepo := repository.NewFeedbackRepo(db)

	invService := service.NewInventoryService(itemRepo, ledgerRepo, loanRepo, userRepo, db, wsHub, reportCache)
	loanService := service.NewLoanService(loanRepo, itemRepo, ledgerRepo, userRepo, db, wsHub, reportCache)
	reportService := service.NewReportService(itemRepo, loanRepo, ledgerRepo, reportCache)
	authService := service.NewAuthService(userRepo)
	feedbackService := service.NewFeedbackService(feedbackRepo, userRepo)

	invHandler := handler.NewInventoryHandler(invService)
	loanHandler := handler.NewLoanHandler(loanService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Inventory Loans API v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Item Routes (mutations are admin-only)
	protected.Get("/items", invHandler.GetItems)
	protected.Get("/items/low-stock", invHandler.GetLowStockItems)
	protected.Get("/items/:id", invHandler.GetItem)
	protected.Get("/items/:id/ledger", invHandler.GetItemLedger)
	protected.Post("/items", middleware.RequireAdmin(), invHandler.CreateItem)
	protected.Put("/items/:id", middleware.RequireAdmin(), invHandler.UpdateItem)
	protected.Delete("/items/:id", middleware.RequireAdmin(), invHandler.DeleteItem)
	protected.Post("/items/:id/adjust-stock", middleware.RequireAdmin(), invHandler.AdjustStock)

	// Ledger Routes
	protected.Get("/ledger", invHandler.GetLedger)

	// Loan Routes
	protected.Get("/loans", loanHandler.GetLoans)
	protected.Get("/loans/overdue", loanHandler.GetOverdueLoans)
	protected.Get("/loans/:id", loanHandler.GetLoan)
	protected.Post("/loans", loanHandler.RequestLoan)
	protected.Post("/loans/:id/verify", middleware.RequireAdmin(), loanHandler.VerifyLoan)
	protected.Post("/loans/:id/pickup", loanHandler.MarkPickedUp)
	protected.Post("/loans/:id/return", loanHandler.ReturnLoan)
	protected.Post("/loans/:id/extend", loanHandler.ExtendLoan)
	protected.Patch("/loans/:id", loanHandler.UpdateLoan)

	// Report Routes
	protected.Get("/reports/statistics", reportHandler.GetItemStatistics)
	protected.Get("/reports/dashboard", reportHandler.GetDashboardSummary)
	protected.Get("/reports/stock-movement", reportHandler.GetStockMovement)

	// Feedback Routes
	protected.Get("/feedback", feedbackHandler.GetFeedback)
	protected.Post("/feedback", feedbackHandler.CreateFeedback)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedAdmin creates the default admin user if it doesn't exist
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}

	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	admin := &model.User{
		Email:    email,
		Name:     "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	if err := admin.SetPassword(password); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("✅ Admin user created: %s", email)
	}
}
