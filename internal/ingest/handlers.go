package ingest

import (
	"errors"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/registry"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app fiber.Router, svc *Service, reg *registry.Service, authMiddleware fiber.Handler) {
	app.Post("/driver/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bus ID is required")
		}
		if req.BusID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Bus ID is required")
		}

		resp, err := svc.Login(c.Context(), req)
		if errors.Is(err, registry.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bus ID not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Login failed")
		}
		return c.JSON(resp)
	})

	app.Post("/bus/location", func(c *fiber.Ctx) error {
		var upd LocationUpdate
		if err := c.BodyParser(&upd); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required location data")
		}

		_, err := svc.RecordFix(c.Context(), upd)
		if errors.Is(err, ErrInvalid) {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required location data")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update location")
		}
		return c.JSON(APIResponse{Success: true, Message: "Location updated successfully"})
	})

	app.Get("/bus/:busId/status", authMiddleware, func(c *fiber.Ctx) error {
		bus, err := reg.GetBus(c.Context(), c.Params("busId"))
		if errors.Is(err, registry.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bus ID not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(APIResponse{Success: true, Message: "OK", Data: bus})
	})

	app.Post("/bus/:busId/status", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil || req.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status required")
		}

		err := reg.SetStatus(c.Context(), c.Params("busId"), req.Status)
		if errors.Is(err, registry.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bus ID not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(APIResponse{Success: true, Message: "Status updated"})
	})

	app.Get("/bus/:busId/fixes", authMiddleware, func(c *fiber.Ctx) error {
		fixes, err := svc.Fixes(c.Context(), c.Params("busId"), c.QueryInt("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(APIResponse{Success: true, Message: "OK", Data: fixes})
	})

	app.Get("/bus/:busId/sessions", authMiddleware, func(c *fiber.Ctx) error {
		sessions, err := svc.Sessions(c.Context(), c.Params("busId"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(APIResponse{Success: true, Message: "OK", Data: sessions})
	})
}
