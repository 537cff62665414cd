package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fleetsim/internal/report"
	"fleetsim/internal/sim"
)

// NewApp wires the read-mostly HTTP surface over the simulation. Handlers
// only consume snapshots; the single mutating endpoint is order intake.
func NewApp(s *sim.Simulator, d *sim.Dispatcher, m *report.MapBuilder) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "fleetsim",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	h := &Handler{Sim: s, Dispatcher: d, Map: m}

	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")
	{
		v1.Get("/status", h.Status)
		v1.Get("/map.geojson", h.MapGeoJSON)
		v1.Get("/plan", h.Plan)
		v1.Post("/orders", h.SubmitOrder)
	}

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
