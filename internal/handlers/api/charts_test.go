package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exitviz/internal/validation"
)

type stubCharts struct {
	err      error
	gotM     int
	gotDays  int
	payload  []byte
	requests int
}

func (s *stubCharts) MovingAverage(ctx context.Context, m, daysBack int) ([]byte, error) {
	s.requests++
	s.gotM, s.gotDays = m, daysBack
	if err := validation.ValidateWindow(m); err != nil {
		return nil, err
	}
	if err := validation.ValidateDaysBack(daysBack, 3650); err != nil {
		return nil, err
	}
	return s.payload, s.err
}

func (s *stubCharts) ExitPie(ctx context.Context, m int) ([]byte, error) {
	s.requests++
	s.gotM = m
	if err := validation.ValidateWindow(m); err != nil {
		return nil, err
	}
	return s.payload, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestApp(charts ChartService, pinger Pinger) *fiber.App {
	app := fiber.New()
	h := NewChartHandler(charts)
	app.Get("/exit-moving-avg/:m/:days_back", h.MovingAverage)
	app.Get("/exit-pie/:m", h.ExitPie)
	app.Get("/healthz", NewHealthHandler(pinger).Check)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte, http.Header) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body, resp.Header
}

func detail(t *testing.T, body []byte) string {
	t.Helper()
	var v struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &v))
	return v.Detail
}

func TestChartHandler_ServesPayloadUnchanged(t *testing.T) {
	payload := []byte(`{"data":[{"type":"pie","hovertemplate":"dest=%{label}<br>count=%{value}<extra></extra>"}],"layout":{}}`)
	charts := &stubCharts{payload: payload}
	app := newTestApp(charts, stubPinger{})

	status, body, header := get(t, app, "/exit-pie/365")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, payload, body)
	assert.Contains(t, header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
	assert.Equal(t, 365, charts.gotM)

	status, body, _ = get(t, app, "/exit-moving-avg/90/30")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, payload, body)
	assert.Equal(t, 90, charts.gotM)
	assert.Equal(t, 30, charts.gotDays)
}

func TestChartHandler_InvalidWindowIsNotFound(t *testing.T) {
	app := newTestApp(&stubCharts{}, stubPinger{})

	for _, path := range []string{"/exit-pie/30", "/exit-moving-avg/100/30", "/exit-pie/-90"} {
		status, body, _ := get(t, app, path)
		assert.Equal(t, fiber.StatusNotFound, status, path)
		assert.Equal(t, "Not found. Try m=90 or m=365", detail(t, body), path)
	}
}

func TestChartHandler_BadParams(t *testing.T) {
	tests := []struct {
		path   string
		status int
		detail string
	}{
		{"/exit-pie/ninety", fiber.StatusUnprocessableEntity, "m must be an integer"},
		{"/exit-moving-avg/90/soon", fiber.StatusUnprocessableEntity, "days_back must be an integer"},
		{"/exit-moving-avg/90/-1", fiber.StatusBadRequest, "invalid days_back: must be >= 0"},
		{"/exit-moving-avg/365/4000", fiber.StatusBadRequest, "invalid days_back: must be <= 3650"},
	}

	charts := &stubCharts{}
	app := newTestApp(charts, stubPinger{})
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body, _ := get(t, app, tt.path)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.detail, detail(t, body))
		})
	}
}

func TestChartHandler_StorageFailureIsInternalError(t *testing.T) {
	charts := &stubCharts{err: fmt.Errorf("failed to query exits: %w", errors.New("connection refused"))}
	app := newTestApp(charts, stubPinger{})

	status, body, _ := get(t, app, "/exit-pie/90")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "failed to build chart", detail(t, body))
	assert.NotContains(t, string(body), "connection refused")
}

func TestHealthHandler(t *testing.T) {
	status, body, _ := get(t, newTestApp(&stubCharts{}, stubPinger{}), "/healthz")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","data":{"source":"ok"}}`, string(body))

	status, body, _ = get(t, newTestApp(&stubCharts{}, stubPinger{err: errors.New("down")}), "/healthz")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "record source unavailable", detail(t, body))
}
