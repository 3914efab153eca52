package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pos-suite/pos-backend/internal/config"
	"github.com/pos-suite/pos-backend/internal/handlers"
	"github.com/pos-suite/pos-backend/internal/middleware"
	"github.com/pos-suite/pos-backend/internal/security"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	tokens *security.TokenService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitMax,
		Expiration:        cfg.RateLimitWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth - public, with a stricter limit against credential stuffing
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        cfg.RateLimitWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Get("/verify-email", authHandler.VerifyEmail)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Logout needs a verified caller so a stolen refresh token cannot be
	// revoked anonymously.
	api.Post("/auth/logout", middleware.RequireAuth(tokens), authHandler.Logout)

	// Protected profile routes
	me := api.Group("/me", middleware.RequireAuth(tokens))
	me.Get("/", userHandler.Me)
	me.Post("/avatar", userHandler.UploadAvatar)

	// Admin user management
	admin := api.Group("/admin", middleware.RequireAuth(tokens), middleware.RequireRoles("admin"))
	admin.Get("/users", userHandler.List)
	admin.Put("/users/:id/roles", userHandler.AssignRole)
	admin.Delete("/users/:id", userHandler.Deactivate)
}
