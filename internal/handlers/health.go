package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	natsClient "license-service/internal/nats"
	redisClient "license-service/internal/redis"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db    *gorm.DB
	cache *redisClient.Client
	nats  *natsClient.Client
}

// NewHealthHandler creates a new health handler. cache and nats may be nil;
// absent optional backends are reported as disabled, not unhealthy.
func NewHealthHandler(db *gorm.DB, cache *redisClient.Client, nats *natsClient.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, nats: nats}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Service   string           `json:"service"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemInfo represents system runtime information
type SystemInfo struct {
	Goroutines  int    `json:"goroutines"`
	MemoryAlloc uint64 `json:"memory_alloc_mb"`
	MemorySys   uint64 `json:"memory_sys_mb"`
	NumCPU      int    `json:"num_cpu"`
	GoVersion   string `json:"go_version"`
}

// Health godoc
// @Summary Health check
// @Description Get the health status of the service
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "license-service",
		Version:   "1.0.0",
		Uptime:    time.Since(startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		System: &SystemInfo{
			Goroutines:  runtime.NumGoroutine(),
			MemoryAlloc: mem.Alloc / 1024 / 1024,
			MemorySys:   mem.Sys / 1024 / 1024,
			NumCPU:      runtime.NumCPU(),
			GoVersion:   runtime.Version(),
		},
	})
}

// Ready godoc
// @Summary Readiness check
// @Description Check that the service can reach its backing stores
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := make(map[string]Check)
	healthy := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		checks["database"] = Check{Status: "unhealthy", Message: err.Error()}
		healthy = false
	} else {
		checks["database"] = Check{Status: "healthy"}
	}

	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			// Redis is a cache, not a dependency; degraded but ready
			checks["redis"] = Check{Status: "degraded", Message: err.Error()}
		} else {
			checks["redis"] = Check{Status: "healthy"}
		}
	} else {
		checks["redis"] = Check{Status: "disabled"}
	}

	if h.nats != nil {
		if h.nats.IsConnected() {
			checks["nats"] = Check{Status: "healthy"}
		} else {
			checks["nats"] = Check{Status: "degraded", Message: "not connected"}
		}
	} else {
		checks["nats"] = Check{Status: "disabled"}
	}

	status := "ready"
	code := http.StatusOK
	if !healthy {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Service:   "license-service",
		Version:   "1.0.0",
		Uptime:    time.Since(startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
