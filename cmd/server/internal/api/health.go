package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

// HealthCheckResponse represents the response from the health check endpoint
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// ReadinessCheckResponse represents the response from the readiness check endpoint
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck represents a single readiness check
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Error  string `json:"error,omitempty"`
}

func healthCheckHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthCheckResponse{
			Status:    "healthy",
			Service:   "meetbot",
			Version:   d.Version,
			Uptime:    time.Since(d.StartTime).Round(time.Second).String(),
			Timestamp: time.Now(),
			Env:       d.Env,
		})
	}
}

// readinessCheckHandler reports ready when the meeting store can be read.
func readinessCheckHandler(svc services.MeetingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeCheck := ReadinessCheck{Name: "meeting_store", Status: "ok"}
		if _, err := svc.List(c.Request.Context()); err != nil {
			storeCheck.Status = "fail"
			storeCheck.Error = err.Error()
		}

		ready := storeCheck.Status == "ok"
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, ReadinessCheckResponse{
			Ready:     ready,
			Checks:    []ReadinessCheck{storeCheck},
			Timestamp: time.Now(),
		})
	}
}
