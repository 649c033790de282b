package handler

import (
	"context"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{
		"database": pingStatus(ctx, h.db),
		"cache":    pingStatus(ctx, h.cache),
	}

	// The cache is optional; only a dead database makes the service
	// unhealthy.
	if status["database"] != "up" {
		return response.Error(c, fiber.StatusServiceUnavailable, "degraded", status)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, status)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
