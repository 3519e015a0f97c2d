package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/mattear-com/chefaudit/internal/adapter/store"
	"github.com/mattear-com/chefaudit/internal/handler"
	"github.com/mattear-com/chefaudit/internal/middleware"
	"github.com/mattear-com/chefaudit/internal/port"
	"github.com/mattear-com/chefaudit/internal/service"
	"github.com/mattear-com/chefaudit/pkg/config"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting ChefAudit", "port", cfg.Port)

	// ── Entity store ─────────────────────────────────────────────────────
	var st port.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		st = pgStore
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store; data will not survive a restart")
		st = store.NewMemoryStore()
	}

	// ── Services ─────────────────────────────────────────────────────────
	scoring := service.NewScoringService(st)
	progress := service.NewProgressService(st)
	corrective := service.NewCorrectiveService(st)
	responses := service.NewResponseService(st, scoring, corrective, progress)
	lifecycle := service.NewLifecycleService(st, scoring, progress)
	maintenance := service.NewMaintenanceService(st, scoring)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Activity middleware (logs all requests)
	app.Use(middleware.ActivityMiddleware(st))

	// ── Public Routes ────────────────────────────────────────────────────
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	jwtMiddleware := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		ExpiresIn: time.Duration(cfg.JWTExpiration) * time.Hour,
	})

	api := app.Group("/api/v1", jwtMiddleware)

	handler.NewRestaurantHandler(st).Register(api)
	handler.NewChecklistHandler(st).Register(api)
	handler.NewAuditHandler(st, lifecycle, progress).Register(api)
	handler.NewResponseHandler(responses).Register(api)
	handler.NewCorrectiveHandler(corrective).Register(api)
	handler.NewDashboardHandler(st).Register(api)
	handler.NewAdminHandler(st, maintenance).Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
