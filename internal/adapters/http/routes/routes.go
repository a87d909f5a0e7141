package routes

import (
	"shelftrack/internal/adapters/http/handlers"
	"shelftrack/internal/adapters/http/middleware"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/config"
	"shelftrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	memberRepo := repositories.NewMemberRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize services
	memberService := services.NewMemberService(db, memberRepo, loanRepo)
	itemService := services.NewItemService(db, itemRepo, loanRepo)
	loanService := services.NewLoanService(db, loanRepo, itemRepo, memberRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	memberHandler := handlers.NewMemberHandler(memberService)
	itemHandler := handlers.NewItemHandler(itemService)
	loanHandler := handlers.NewLoanHandler(loanService)
	authHandler := handlers.NewAuthHandler(authService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	setupMemberRoutes(app.Group("/members"), memberHandler, loanHandler)
	setupItemRoutes(app.Group("/items"), itemHandler, loanHandler)
	setupLoanRoutes(app.Group("/loans"), loanHandler, cfg)
	setupAuthRoutes(app.Group("/auth"), authHandler, cfg)

	// Catalog search
	app.Get("/search/items", itemHandler.Search)
}

// setupMemberRoutes configures member directory routes
func setupMemberRoutes(router fiber.Router, handler *handlers.MemberHandler, loanHandler *handlers.LoanHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
	router.Get("/:id/loans", loanHandler.ListByMember)
}

// setupItemRoutes configures catalog item routes
func setupItemRoutes(router fiber.Router, handler *handlers.ItemHandler, loanHandler *handlers.LoanHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Delete("/:id", handler.Delete)
	router.Get("/:id/loans", loanHandler.ListByItem)
}

// setupLoanRoutes configures loan lifecycle routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler, cfg *config.Config) {
	router.Post("/", handler.Issue)
	router.Get("/", handler.List)

	// Overdue reporting is a staff surface, restricted to librarians
	router.Get("/overdue", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.ListOverdue)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id/return", handler.Return)
	router.Delete("/:id", handler.Delete)
}

// setupAuthRoutes configures staff authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (stricter rate limit)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}
