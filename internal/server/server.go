package server

import (
	"errors"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/auth"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/config"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/ingest"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/registry"
	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(corsHandler)

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	tokens := auth.NewService(s.Cfg.JWTSecret)
	reg := registry.NewService(s.DB)

	ingest.RegisterRoutes(s.App, ingest.NewService(s.DB, reg, tokens, s.Stream), reg, jwtMiddleware)
	registry.RegisterRoutes(s.App.Group("/buses"), reg, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)

	s.App.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Endpoint not found")
	})
}

// corsHandler mirrors the gateway behavior the driver app was written
// against: permissive headers on every response and a 200 (not 204)
// preflight, which fiber's cors middleware cannot produce.
func corsHandler(c *fiber.Ctx) error {
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
	c.Set("Access-Control-Allow-Methods", "OPTIONS,POST,GET")

	if c.Method() == fiber.MethodOptions {
		return c.JSON(fiber.Map{"message": "CORS preflight"})
	}
	return c.Next()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}
