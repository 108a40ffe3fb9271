package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute - метка для запросов без маршрута, чтобы произвольные URL
// не раздували кардинальность
const unmatchedRoute = "unmatched"

// PrometheusMiddleware считает HTTP-метрики REST API шахты:
//
//	<ns>_http_request_duration_seconds{method,route,status}
//	<ns>_http_requests_inflight
//	<ns>_http_request_errors_total{method,route,class}  4xx/5xx
//	<ns>_commands_total{command,status}                 известные команды .../commands/:name
type PrometheusMiddleware struct {
	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
	reqErrors   *prometheus.CounterVec
	commands    *prometheus.CounterVec
}

// NewPrometheusMiddleware регистрирует метрики в reg (nil - DefaultRegisterer)
func NewPrometheusMiddleware(namespace string, reg prometheus.Registerer) *PrometheusMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся 4xx/5xx.",
		}, []string{"method", "route", "class"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Чат-команды, вызванные через REST.",
		}, []string{"command", "status"}),
	}

	reg.MustRegister(pm.reqDuration, pm.reqInflight, pm.reqErrors, pm.commands)
	return pm
}

// Handler возвращает middleware для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.reqInflight.Inc()
		defer pm.reqInflight.Dec()

		c.Next()

		code := c.Writer.Status()
		status := strconv.Itoa(code)
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		pm.reqDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		if code >= 400 {
			pm.reqErrors.WithLabelValues(method, route, statusClass(code)).Inc()
		}
		if name := c.Param("name"); name != "" && code != http.StatusNotFound {
			pm.commands.WithLabelValues(name, status).Inc()
		}
	}
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// RegisterMetricsEndpoint добавляет GET /metrics с метриками из g
func RegisterMetricsEndpoint(r gin.IRoutes, g prometheus.Gatherer) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})))
}
