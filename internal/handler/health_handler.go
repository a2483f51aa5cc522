package handler

import (
	"admin-service/pkg/database"
	"admin-service/pkg/logger"
	"admin-service/prometheus"
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler serves the unauthenticated service endpoints
type HealthHandler struct {
	db    database.Pinger
	clock clock.Clock
}

// NewHealthHandler takes the database used by /health?check=db. A nil
// clock uses the wall clock.
func NewHealthHandler(db database.Pinger, clk clock.Clock) *HealthHandler {
	if clk == nil {
		clk = clock.New()
	}
	return &HealthHandler{db: db, clock: clk}
}

// Index is the service banner
func (h *HealthHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Student SaaS Admin API",
		"version": prometheus.Version,
		"status":  "running",
	})
}

// Health reports liveness. With ?check=db the database is pinged as well.
func (h *HealthHandler) Health(c echo.Context) error {
	body := echo.Map{
		"status":    "healthy",
		"timestamp": h.clock.Now().UTC().Format("2006-01-02T15:04:05.999999") + "Z",
	}

	if c.QueryParam("check") != "db" {
		return c.JSON(http.StatusOK, body)
	}

	if h.db == nil {
		body["status"] = "unhealthy"
		body["db_status"] = "unconfigured"
		return c.JSON(http.StatusServiceUnavailable, body)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromContext(c).Error("Database health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["db_status"] = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, body)
	}

	body["db_status"] = "ok"
	return c.JSON(http.StatusOK, body)
}

// Metrics exposes the prometheus registry
func Metrics(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
