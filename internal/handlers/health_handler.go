package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pos-suite/pos-backend/internal/dto"
)

type HealthHandler struct {
	env     string
	started time.Time
	ping    func() error
}

func NewHealthHandler(env string, ping func() error) *HealthHandler {
	return &HealthHandler{env: env, started: time.Now(), ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	overall := "ok"
	dbStatus := "ok"
	status := fiber.StatusOK
	if err := h.ping(); err != nil {
		overall = "degraded"
		dbStatus = "unhealthy: " + err.Error()
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(dto.HealthResponse{
		Status:      overall,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: h.env,
		UptimeSec:   time.Since(h.started).Seconds(),
		DB:          dbStatus,
	})
}
