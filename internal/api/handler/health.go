package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	redisdb "github.com/cedarvest/dashboard-sync/internal/infrastructure/db/redis"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/reconnect"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/sse"
)

const readinessTimeout = 3 * time.Second

// HealthHandler handles GET /health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Channel is a long-lived inbound connection whose state is reported on
// the readiness probe.
type Channel interface {
	State() reconnect.State
}

// HealthDependenciesHandler handles GET /health/ready. The agent is ready
// while no channel has exhausted its reconnects and Redis, when configured,
// answers a ping.
type HealthDependenciesHandler struct {
	channels map[string]Channel
	redis    redis.Cmdable
}

// NewHealthDependenciesHandler builds the readiness probe. rdb may be nil.
func NewHealthDependenciesHandler(channels map[string]Channel, rdb redis.Cmdable) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		channels: channels,
		redis:    rdb,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Message      string                      `json:"message,omitempty"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true
	failed := false

	names := make([]string, 0, len(h.channels))
	for name := range h.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := h.channels[name].State()
		if st == reconnect.Failed {
			deps[name] = dependencyStatus{Status: st.String(), Error: sse.FailedMessage}
			healthy = false
			failed = true
			continue
		}
		deps[name] = dependencyStatus{Status: st.String()}
	}

	if h.redis != nil {
		if err := redisdb.Ping(ctx, h.redis, readinessTimeout); err != nil {
			deps["redis"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["redis"] = dependencyStatus{Status: "ok"}
		}
	}

	resp := readinessResponse{Status: "ok", Dependencies: deps}
	httpStatus := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	if failed {
		resp.Message = "disconnected, please refresh"
	}
	return c.JSON(httpStatus, resp)
}
