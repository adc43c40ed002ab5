package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/instantverify/verify-api/internal/config"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// QueueHealth reports whether the background queue is keeping up
type QueueHealth interface {
	IsHealthy() bool
}

// HealthHandler serves the health endpoint
type HealthHandler struct {
	queue QueueHealth
}

// NewHealthHandler creates a health handler. queue may be nil.
func NewHealthHandler(queue QueueHealth) *HealthHandler {
	return &HealthHandler{queue: queue}
}

// HealthCheck godoc
// @Summary Service health
// @Description Reports the health of the service and its dependencies
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "healthy",
		Services: map[string]string{},
	}

	if config.MongoDB != nil {
		if err := config.MongoDB.Client().Ping(ctx, readpref.Primary()); err != nil {
			response.Services["mongodb"] = "unhealthy"
			response.Status = "unhealthy"
		} else {
			response.Services["mongodb"] = "healthy"
		}
	}

	if config.Redis != nil {
		if err := config.Redis.Ping(ctx).Err(); err != nil {
			response.Services["redis"] = "unhealthy"
			response.Status = "unhealthy"
		} else {
			response.Services["redis"] = "healthy"
		}
	}

	if h.queue != nil {
		if h.queue.IsHealthy() {
			response.Services["queue"] = "healthy"
		} else {
			response.Services["queue"] = "degraded"
			response.Status = "unhealthy"
		}
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}
