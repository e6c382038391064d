package registry

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Bus
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.BusID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "busId required")
		}
		bus, err := svc.CreateBus(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(bus)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		buses, err := svc.ListBuses(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(buses)
	})

	r.Get("/:busId", func(c *fiber.Ctx) error {
		bus, err := svc.GetBus(c.Context(), c.Params("busId"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bus ID not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(bus)
	})

	r.Delete("/:busId", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteBus(c.Context(), c.Params("busId")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
