package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/persistence"
)

// ImageStorePinger is the readiness-probe slice of the image store.
type ImageStorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes. Readiness covers
// every backing store a listing request can touch: postgres, redis and the
// image object store.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	images      ImageStorePinger
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, images ImageStorePinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		postgres:    postgres,
		redis:       redis,
		images:      images,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by probing each dependency.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	probes := []struct {
		name  string
		check func(context.Context) error
	}{
		{"postgres", h.postgres.Ping},
		{"redis", h.redis.Ping},
		{"imageStore", h.pingImages},
	}

	depStatus := fiber.Map{}
	ready := true
	for _, probe := range probes {
		if err := probe.check(ctx); err != nil {
			depStatus[probe.name] = err.Error()
			ready = false
			continue
		}
		depStatus[probe.name] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

func (h *HealthHandler) pingImages(ctx context.Context) error {
	if h.images == nil {
		return errors.New("image store not configured")
	}
	return h.images.Ping(ctx)
}
