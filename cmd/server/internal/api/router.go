// Package api exposes a small read-mostly admin surface over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/meetbot/cmd/server/internal/middleware"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

// Deps are the collaborators of the admin API.
type Deps struct {
	Meetings  services.MeetingService
	Env       string
	Version   string
	StartTime time.Time
}

// NewRouter builds the gin engine with every admin route registered.
func NewRouter(d Deps) *gin.Engine {
	if d.StartTime.IsZero() {
		d.StartTime = time.Now()
	}
	if d.Version == "" {
		d.Version = "dev"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.GET("/health", healthCheckHandler(d))
	r.GET("/readiness", readinessCheckHandler(d.Meetings))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/meetings", HandleListMeetings(d.Meetings))
		v1.GET("/meetings/:id", HandleGetMeeting(d.Meetings))
		v1.GET("/themes", HandleListThemes())
		v1.POST("/digest/run", HandleRunDigest(d.Meetings))
	}
	return r
}
