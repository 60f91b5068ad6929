package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

// HandleListMeetings GET /api/v1/meetings
func HandleListMeetings(svc services.MeetingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ms, err := svc.List(c.Request.Context())
		if err != nil {
			errorResponse(c, http.StatusServiceUnavailable, "meeting store unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"meetings": ms,
			"total":    len(ms),
		})
	}
}

// HandleGetMeeting GET /api/v1/meetings/:id
func HandleGetMeeting(svc services.MeetingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			errorResponseWithDetail(c, http.StatusBadRequest, "invalid meeting id", c.Param("id"))
			return
		}
		m, err := svc.Get(c.Request.Context(), id)
		switch {
		case errors.Is(err, meetings.ErrNotFound):
			notFoundResponse(c, "meeting")
		case err != nil:
			errorResponse(c, http.StatusServiceUnavailable, "meeting store unavailable")
		default:
			c.JSON(http.StatusOK, m)
		}
	}
}

type themeView struct {
	Position    int    `json:"position"`
	Key         string `json:"key"`
	Description string `json:"description"`
}

// HandleListThemes GET /api/v1/themes
func HandleListThemes() gin.HandlerFunc {
	return func(c *gin.Context) {
		var out []themeView
		for i, key := range themes.Keys() {
			t, _ := themes.Lookup(key)
			out = append(out, themeView{Position: i + 1, Key: t.Key, Description: t.Description})
		}
		c.JSON(http.StatusOK, gin.H{"themes": out})
	}
}

// HandleRunDigest POST /api/v1/digest/run sends the daily digest immediately.
func HandleRunDigest(svc services.MeetingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.RunDigest(c.Request.Context())
		if err != nil {
			errorResponseWithDetail(c, http.StatusServiceUnavailable, "digest failed", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"groups":    report.Groups,
			"delivered": report.Delivered,
			"failed":    report.Failed,
		})
	}
}
