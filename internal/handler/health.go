package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"codecollab-backend/internal/cache"
	"codecollab-backend/internal/database"
)

// HealthHandler reports component status. Postgres down means unhealthy;
// Redis or translation being degraded keeps the service up, since both have
// fallbacks.
type HealthHandler struct {
	db               *gorm.DB
	cache            *cache.TranslationCache
	translateEnabled bool
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db *gorm.DB, ca *cache.TranslationCache, translateEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, cache: ca, translateEnabled: translateEnabled}
}

// ComponentCheck is the per-component status entry.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the full health report.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks"`
}

// Check reports database, redis, and translation provider status.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck),
	}

	dbStart := time.Now()
	if err := database.Ping(h.db); err != nil {
		response.Status = "unhealthy"
		response.Checks["database"] = ComponentCheck{
			Status: "unhealthy",
			Error:  "database ping failed",
		}
	} else {
		response.Checks["database"] = ComponentCheck{
			Status:  "healthy",
			Latency: time.Since(dbStart).String(),
		}
	}

	redisStart := time.Now()
	if err := h.cache.Health(c.Context()); err != nil {
		response.Checks["redis"] = ComponentCheck{
			Status: "degraded",
			Error:  "redis unreachable",
		}
	} else {
		response.Checks["redis"] = ComponentCheck{
			Status:  "healthy",
			Latency: time.Since(redisStart).String(),
		}
	}

	if h.translateEnabled {
		response.Checks["translate"] = ComponentCheck{Status: "healthy"}
	} else {
		response.Checks["translate"] = ComponentCheck{Status: "not_configured"}
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

// Liveness is the trivial liveness probe.
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness checks the database connection.
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if err := database.Ping(h.db); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
