package api

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"fleetsim/internal/domain"
	"fleetsim/internal/report"
	"fleetsim/internal/sim"
)

type Handler struct {
	Sim        *sim.Simulator
	Dispatcher *sim.Dispatcher
	Map        *report.MapBuilder
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "fleetsim",
	})
}

// Status returns the current world snapshot.
func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(h.Sim.Snapshot())
}

// MapGeoJSON returns the rate-limited GeoJSON rendering of the world.
func (h *Handler) MapGeoJSON(c *fiber.Ctx) error {
	data, err := h.Map.GeoJSON()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to build map")
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(data)
}

// Plan returns advisory balanced tours over the pending pickups.
func (h *Handler) Plan(c *fiber.Ctx) error {
	plan, err := h.Dispatcher.PlanTours(c.Context())
	if err != nil {
		log.Printf("component=api op=plan err=%v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "Planning unavailable")
	}
	return c.JSON(plan)
}

type submitOrderRequest struct {
	Pickup   domain.Location `json:"pickup"`
	Dropoff  domain.Location `json:"dropoff"`
	Priority int             `json:"priority"`
}

// SubmitOrder creates a pending package from an intake request.
func (h *Handler) SubmitOrder(c *fiber.Ctx) error {
	var req submitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid order payload")
	}
	if req.Pickup.SamePoint(req.Dropoff) {
		return fiber.NewError(fiber.StatusBadRequest, "Pickup and dropoff must differ")
	}
	if req.Priority <= 0 {
		req.Priority = 1
	}

	pkg, err := h.Sim.SubmitOrder(req.Pickup, req.Dropoff, req.Priority)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create order")
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}
