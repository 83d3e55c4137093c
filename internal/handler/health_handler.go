package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/examprep-api/internal/config"
	"github.com/noah-isme/examprep-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthHandler reports liveness together with the state of backing stores.
type HealthHandler struct {
	cfg    config.Config
	db     *gorm.DB
	cache  *redis.Client
	logger zerolog.Logger
}

// NewHealthHandler constructs the handler. db and cache may be nil.
func NewHealthHandler(cfg config.Config, db *gorm.DB, cache *redis.Client, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:    cfg,
		db:     db,
		cache:  cache,
		logger: logger.With().Str("component", "health_handler").Logger(),
	}
}

// Check answers 200 when every configured dependency responds and 503 otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
	defer cancel()

	payload := HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Service:     h.cfg.AppName,
		Environment: h.cfg.AppEnv,
		Checks: map[string]string{
			"database": h.probeDatabase(ctx),
			"cache":    h.probeCache(ctx),
		},
	}

	for name, state := range payload.Checks {
		if state == "down" {
			payload.Status = "degraded"
			h.logger.Warn().Str("dependency", name).Msg("health probe failed")
		}
	}

	if payload.Status != "ok" {
		return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "service degraded", payload)
	}
	return utils.SendSuccess(c, "service healthy", payload)
}

func (h *HealthHandler) probeDatabase(ctx context.Context) string {
	if h.db == nil {
		return "disabled"
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return "down"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) probeCache(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	if err := h.cache.Ping(ctx).Err(); err != nil {
		return "down"
	}
	return "up"
}
