package health

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handlers struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// GET /health reports connectivity of the backing stores.
func (h *Handlers) Check(c *fiber.Ctx) error {
	status := fiber.StatusOK
	postgres := "ok"
	if h.DB != nil {
		if sqlDB, err := h.DB.DB(); err != nil || sqlDB.Ping() != nil {
			postgres = "down"
			status = fiber.StatusServiceUnavailable
		}
	} else {
		postgres = "not configured"
	}

	redisStatus := "ok"
	if h.Rdb != nil {
		if err := h.Rdb.Ping(context.Background()).Err(); err != nil {
			redisStatus = "down"
			status = fiber.StatusServiceUnavailable
		}
	} else {
		redisStatus = "not configured"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"postgres": postgres,
		"redis":    redisStatus,
	})
}
