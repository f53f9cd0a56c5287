package controller

import (
	"tempnote-be/internal/dto"
	"tempnote-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICleanupController interface {
	RegisterRoutes(r fiber.Router)
	Cleanup(ctx *fiber.Ctx) error
}

type cleanupController struct {
	sweeper service.ISweeperService
}

func NewCleanupController(sweeper service.ISweeperService) ICleanupController {
	return &cleanupController{sweeper: sweeper}
}

func (c *cleanupController) RegisterRoutes(r fiber.Router) {
	r.Get("/cleanup", c.Cleanup)
}

// Cleanup answers with a bare body, not the API envelope.
func (c *cleanupController) Cleanup(ctx *fiber.Ctx) error {
	deleted, err := c.sweeper.Sweep(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(dto.CleanupErrorResponse{
			Error: "Failed to clean up expired notes",
		})
	}
	return ctx.JSON(dto.CleanupResponse{
		Message: "Expired notes cleaned up successfully",
		Deleted: deleted,
	})
}
