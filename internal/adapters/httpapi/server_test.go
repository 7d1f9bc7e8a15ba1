package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/acm-community-bot/internal/app/metrics"
)

type fixedSize int

func (f fixedSize) Size(context.Context) (int, error) { return int(f), nil }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHealthzBeforeReady(t *testing.T) {
	s := New(":0", Deps{Uptime: func() time.Duration { return 0 }}, discard())
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"starting"}`, rec.Body.String())
}

func TestHealthzReady(t *testing.T) {
	s := New(":0", Deps{Uptime: func() time.Duration { return 90 * time.Second }}, discard())
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","uptimeSeconds":90}`, rec.Body.String())
}

func TestMetricsSnapshot(t *testing.T) {
	w := metrics.NewWindow()
	for i := 0; i < 4; i++ {
		w.Record(i == 0, "verify", "internal")
	}
	s := New(":0", Deps{
		Window:      w,
		Uptime:      func() time.Duration { return time.Minute },
		Cooldowns:   fixedSize(3),
		ActiveTemps: func() int { return 2 },
	}, discard())

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 25, body["errorRate"])
	assert.EqualValues(t, 4, body["totalRequests"])
	assert.EqualValues(t, 1, body["totalErrors"])
	assert.EqualValues(t, 60, body["uptimeSeconds"])
	assert.EqualValues(t, 3, body["cooldowns"])
	assert.EqualValues(t, 2, body["tempChannels"])
	assert.NotEmpty(t, body["topErrorCommands"])
}

func TestUnknownRoute(t *testing.T) {
	s := New(":0", Deps{}, discard())
	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope").Code)
}
