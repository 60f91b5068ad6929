package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/meetbot/cmd/server/internal/config"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

type testServer struct {
	engine *gin.Engine
	fs     afero.Fs
	rec    *notify.Recorder
}

func newTestServer(t *testing.T, seed ...meetings.Meeting) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := afero.NewMemMapFs()
	store := meetings.NewFileStore(fs, "data/meetings.json", nil)
	if len(seed) > 0 {
		require.NoError(t, store.SaveAll(context.Background(), seed))
	}
	rec := &notify.Recorder{}
	svc := services.NewMeetingService(store, rec, config.ChannelDirectory{"eng": "111"}, services.Options{DefaultTheme: "corporate"})
	return &testServer{engine: NewRouter(Deps{Meetings: svc, Env: "test"}), fs: fs, rec: rec}
}

func (s *testServer) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthCheckResponse
	decode(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "meetbot", resp.Service)
	assert.Equal(t, "test", resp.Env)
}

func TestReadiness(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/readiness")
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, afero.WriteFile(s.fs, "data/meetings.json", []byte("{broken"), 0o644))
	w = s.do(http.MethodGet, "/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessCheckResponse
	decode(t, w, &resp)
	assert.False(t, resp.Ready)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "fail", resp.Checks[0].Status)
}

func TestListAndGetMeetings(t *testing.T) {
	s := newTestServer(t,
		meetings.Meeting{ID: 1, Title: "Standup", Time: "09:00", ChannelName: "eng", ChannelID: "111", Theme: "modern"},
		meetings.Meeting{ID: 2, Title: "Retro", Time: "15:00", ChannelName: "eng", ChannelID: "111", Theme: "modern"},
	)

	w := s.do(http.MethodGet, "/api/v1/meetings")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Meetings []meetings.Meeting `json:"meetings"`
		Total    int                `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "Retro", list.Meetings[1].Title)

	w = s.do(http.MethodGet, "/api/v1/meetings/2")
	require.Equal(t, http.StatusOK, w.Code)
	var m meetings.Meeting
	decode(t, w, &m)
	assert.Equal(t, "Retro", m.Title)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/meetings/9").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/meetings/abc").Code)
}

func TestThemes(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/v1/themes")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Themes []themeView `json:"themes"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Themes, 7)
	assert.Equal(t, themeView{Position: 1, Key: "executive", Description: resp.Themes[0].Description}, resp.Themes[0])
}

func TestRunDigest(t *testing.T) {
	s := newTestServer(t, meetings.Meeting{ID: 1, Title: "Standup", Time: "09:00", ChannelName: "eng", ChannelID: "111", Theme: "modern"})

	w := s.do(http.MethodPost, "/api/v1/digest/run")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"groups":1,"delivered":1,"failed":0}`, w.Body.String())

	sent := s.rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.KindDigest, sent[0].Kind)
	assert.True(t, strings.Contains(sent[0].Text, "Standup"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
