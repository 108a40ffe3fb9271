package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/unlimited-mining/internal/logging"
)

// TraceIDKey - ключ trace-ID в gin.Context и заголовок ответа
const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-Id"
)

// Маршруты служебных проб пишутся только на DEBUG
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// RequestLogger присваивает запросу trace-ID и пишет по строке на ответ.
// Для маршрутов игрока в строку попадает его id.
type RequestLogger struct {
	logger *logging.Logger
}

// NewRequestLogger создаёт middleware; nil logger - логгер компонента api
func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.GetAPILogger()
	}
	return &RequestLogger{logger: logger}
}

// TraceID возвращает trace-ID, назначенный запросу
func TraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

func requestTraceID(c *gin.Context) string {
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
		return sc.TraceID().String()
	}
	if id := c.GetHeader(TraceIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := requestTraceID(c)
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		line := fmt.Sprintf("[HTTP] %s %s %d %s trace=%s", c.Request.Method, route, status, time.Since(start), traceID)
		if player := c.Param("id"); player != "" {
			line += " player=" + player
		}

		switch {
		case status >= http.StatusInternalServerError:
			rl.logger.Warn("%s", line)
		case quietRoutes[route]:
			rl.logger.Debug("%s", line)
		default:
			rl.logger.Info("%s", line)
		}
	}
}
