package handlers

import (
	"dwallet/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// Health reports liveness of the service and its database connection.
func Health(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "up"

	if repositories.DB == nil {
		status, dbStatus = "degraded", "down"
	} else if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.Ping() != nil {
		status, dbStatus = "degraded", "down"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
	})
}
