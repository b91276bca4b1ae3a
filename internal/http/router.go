package http

import (
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/issue-activity/backend/internal/config"
	"github.com/issue-activity/backend/internal/http/handlers"
	"github.com/issue-activity/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	activityHandler *handlers.ActivityHandler,
	metaHandler *handlers.MetaHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSAllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Service-to-service hand-off from the edit API
	internal := app.Group("/internal", middleware.InternalTokenMiddleware(cfg.InternalAPIToken, log))
	internal.Post("/activities", activityHandler.Enqueue)

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, "api", cfg.RateLimitPerMinute, time.Minute, log))

	// Meta
	api.Get("/meta/activity-fields", metaHandler.GetFields)
	api.Get("/meta/event-types", metaHandler.GetEventTypes)

	// History
	api.Get("/projects/:projectId/issues/:issueId/history", activityHandler.ListHistory)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
