package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger(nil).Handler())
	pm := NewPrometheusMiddleware("test", reg)
	r.Use(pm.Handler())
	RegisterMetricsEndpoint(r, reg)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) { c.String(http.StatusBadRequest, "no") })
	r.POST("/commands/:name", func(c *gin.Context) {
		if c.Param("name") == "stats" {
			c.String(http.StatusOK, "ok")
			return
		}
		c.String(http.StatusNotFound, "unknown")
	})
	return r
}

func TestRequestLoggerSetsTraceID(t *testing.T) {
	r := newRouter(prometheus.NewRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(TraceIDHeader), 36, "Без OpenTelemetry берётся uuid")
}

func TestRequestLoggerKeepsIncomingTraceID(t *testing.T) {
	r := newRouter(prometheus.NewRegistry())
	var seen string
	r.GET("/trace", func(c *gin.Context) {
		seen = TraceID(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(TraceIDHeader, "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc123", seen, "trace-ID доступен обработчику")
}

func TestPrometheusMiddlewareCountsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(reg)

	for _, path := range []string{"/ok", "/fail", "/fail", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg, "test_http_request_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "Серии для /fail и несопоставленного маршрута")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_request_duration_seconds")
}

func TestPrometheusMiddlewareCountsKnownCommands(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(reg)

	for _, name := range []string{"stats", "stats", "dance"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/commands/"+name, nil))
	}

	count, err := testutil.GatherAndCount(reg, "test_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Неизвестные команды не создают серий")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "test_commands_total" {
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "4xx", statusClass(http.StatusConflict))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
}
