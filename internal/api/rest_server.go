package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/unlimited-mining/internal/economy"
	"github.com/annel0/unlimited-mining/internal/game"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/metrics"
	"github.com/annel0/unlimited-mining/internal/middleware"
	"github.com/annel0/unlimited-mining/internal/world"
)

// Game - операции игрового режима, доступные через REST
type Game interface {
	MineStatus() world.Status
	CreateMine(ctx context.Context) error
	ClearMine(ctx context.Context) error
	Interact(ctx context.Context, in host.Interaction) error
	HandleCommand(ctx context.Context, playerID, name string) (game.CommandResult, error)
	PlayerStats(ctx context.Context, playerID string) (economy.Stats, error)
	Leave(ctx context.Context, playerID string) error
}

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	game    Game
	port    string
	metrics *metrics.ServerMetrics
	logger  *logging.Logger
	srv     *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // порт для запуска сервера
	Game     Game                 // игровой режим
	Registry *prometheus.Registry // метрики для /metrics; nil - глобальный регистр
	Tracing  bool                 // otelgin middleware
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	if config.Tracing {
		router.Use(otelgin.Middleware("um_rest"))
	}
	router.Use(middleware.NewRequestLogger(logging.GetAPILogger()).Handler())

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("um_rest", reg)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, gatherer)

	server := &RestServer{
		router:  router,
		game:    config.Game,
		port:    config.Port,
		metrics: metrics.NewServerMetrics(),
		logger:  logging.GetAPILogger(),
	}

	server.setupRoutes()
	server.srv = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

// Router возвращает gin.Engine (для тестов и встраивания)
func (rs *RestServer) Router() *gin.Engine { return rs.router }

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/mine", rs.handleMineStatus)
		api.POST("/mine/create", rs.handleMineCreate)
		api.POST("/mine/clear", rs.handleMineClear)
		api.POST("/interact", rs.handleInteract)

		players := api.Group("/players/:id")
		players.GET("", rs.handlePlayerStats)
		players.POST("/leave", rs.handlePlayerLeave)
		players.POST("/commands/:name", rs.handleCommand)
	}
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"process": rs.metrics.Snapshot(),
	})
}

func (rs *RestServer) handleMineStatus(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние шахты",
		Data:    rs.game.MineStatus(),
	})
}

func (rs *RestServer) handleMineCreate(c *gin.Context) {
	if err := rs.game.CreateMine(c.Request.Context()); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Шахта создана",
		Data:    rs.game.MineStatus(),
	})
}

func (rs *RestServer) handleMineClear(c *gin.Context) {
	if err := rs.game.ClearMine(c.Request.Context()); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Шахта очищена",
		Data:    rs.game.MineStatus(),
	})
}

func (rs *RestServer) handleInteract(c *gin.Context) {
	var in host.Interaction
	if err := c.ShouldBindJSON(&in); err != nil || in.PlayerID == "" {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}
	if err := rs.game.Interact(c.Request.Context(), in); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Взаимодействие принято"})
}

func (rs *RestServer) handlePlayerStats(c *gin.Context) {
	stats, err := rs.game.PlayerStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика игрока", Data: stats})
}

func (rs *RestServer) handlePlayerLeave(c *gin.Context) {
	if err := rs.game.Leave(c.Request.Context(), c.Param("id")); err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Игрок сохранен и выгружен"})
}

func (rs *RestServer) handleCommand(c *gin.Context) {
	res, err := rs.game.HandleCommand(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		rs.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Команда выполнена", Data: res})
}

// fail переводит доменную ошибку в HTTP-статус
func (rs *RestServer) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error("Ошибка обработки %s %s trace=%s: %v", c.Request.Method, c.FullPath(), middleware.TraceID(c), err)
	}
	c.JSON(status, GenericResponse{Success: false, Message: err.Error(), TraceID: middleware.TraceID(c)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownCommand), errors.Is(err, world.ErrMissingVoxel):
		return http.StatusNotFound
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, world.ErrAlreadyCreated), errors.Is(err, world.ErrNotCreated):
		return http.StatusConflict
	case errors.Is(err, economy.ErrSessionClosed), errors.Is(err, game.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Start запускает REST сервер; блокирует до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Stop выполняет graceful shutdown
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.srv.Shutdown(ctx)
}
