package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/unlimited-mining/internal/api"
	"github.com/annel0/unlimited-mining/internal/clock"
	"github.com/annel0/unlimited-mining/internal/config"
	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/game"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/metrics"
	"github.com/annel0/unlimited-mining/internal/observability"
	"github.com/annel0/unlimited-mining/internal/storage"
)

// hostSide - подключение к игровому хосту
type hostSide struct {
	world        host.World
	presenter    host.Presenter
	interactions host.Interactions
	departures   host.Departures
	start        func(ctx context.Context) error
	stop         func()
}

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (или UM_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		logging.SetDefaultLevel(level)
	}
	logging.GetLoggerManager().EnableFiles(cfg.Logging.Files)
	for component, name := range cfg.Logging.Components {
		if level, err := logging.ParseLevel(name); err == nil {
			logging.GetLoggerManager().Override(component, level)
		}
	}
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("⛏️ Запуск Unlimited Mining...")

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ТРАССИРОВКА ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, observability.Options{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
		Attributes: map[string]string{
			"mine.origin": fmt.Sprintf("%d,%d,%d", cfg.Mine.Origin[0], cfg.Mine.Origin[1], cfg.Mine.Origin[2]),
			"mine.size":   fmt.Sprintf("%dx%d", cfg.Mine.Width, cfg.Mine.Length),
		},
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdownTelemetry(context.Background())

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(metrics.NewProcessCollector(metrics.NewServerMetrics()))
	gameMetrics := metrics.NewGameMetrics(reg)

	// === ХРАНИЛИЩЕ ===
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	// === ШИНА СОБЫТИЙ ===
	bus, err := openBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	eventbus.NewMetricsExporter(bus, busBackend(cfg.EventBus), reg)

	if sub, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Логирование событий недоступно: %v", err)
	} else {
		defer sub.Unsubscribe()
	}

	// === ХОСТ ===
	hs, err := openHost(cfg, bus)
	if err != nil {
		return err
	}
	defer hs.stop()

	// === ИГРОВОЙ РЕЖИМ ===
	mineCfg, err := cfg.Mine.WorldConfig()
	if err != nil {
		return err
	}
	g, err := game.New(game.Config{
		Mine:          mineCfg,
		Stations:      cfg.Stations.StationConfig(),
		CreateOnStart: cfg.Mine.CreateOnStart,
	}, game.Deps{
		World:        hs.world,
		Presenter:    hs.presenter,
		Interactions: hs.interactions,
		Departures:   hs.departures,
		Store:        store,
		Clock:        clock.Real{},
		Bus:          bus,
		Metrics:      gameMetrics,
	})
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := hs.start(ctx); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	if err := g.Init(ctx); err != nil {
		return fmt.Errorf("game init: %w", err)
	}

	// === REST API ===
	gin.SetMode(gin.ReleaseMode)
	restPort := cfg.Server.GetRESTPort()
	rest := api.NewRestServer(api.Config{
		Port:     fmt.Sprintf(":%d", restPort),
		Game:     g,
		Registry: reg,
		Tracing:  cfg.Telemetry.Enabled,
	})
	restErr := make(chan error, 1)
	go func() { restErr <- rest.Start() }()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", restPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", restPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	case err := <-restErr:
		if err != nil {
			logging.Error("❌ REST API остановился: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := rest.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := g.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки игрового режима: %v", err)
	}
	return nil
}

func openBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Backend {
	case config.BusJetStream:
		bus, err := eventbus.NewJetStreamBus(eventbus.JetStreamConfig{
			URL:       cfg.URL,
			Stream:    cfg.Stream,
			Retention: cfg.RetentionDuration(),
		})
		if err != nil {
			return nil, fmt.Errorf("jetstream: %w", err)
		}
		logging.Info("📨 Шина событий: JetStream %s (stream %s)", cfg.URL, cfg.Stream)
		return bus, nil
	default:
		logging.Info("📨 Шина событий: в памяти")
		return eventbus.NewMemoryBus(cfg.Capacity), nil
	}
}

func openHost(cfg *config.Config, bus eventbus.EventBus) (*hostSide, error) {
	switch cfg.Host.Backend {
	case config.HostNats:
		nc, shared, err := hostConn(cfg, bus)
		if err != nil {
			return nil, fmt.Errorf("connect host nats: %w", err)
		}
		if cfg.EventBus.Backend != config.BusJetStream {
			logging.Warn("⚠️ Хост NATS с локальной шиной: взаимодействия придут только через REST")
		}
		source := host.NewBusInteractions(bus)
		logging.Info("🔌 Хост: NATS %s", cfg.Host.NatsURL)
		return &hostSide{
			world:        host.NewNatsWorld(nc, cfg.Host.RequestTimeout),
			presenter:    host.NewNatsPresenter(nc, cfg.Host.RequestTimeout),
			interactions: source,
			departures:   source,
			start:        source.Start,
			stop: func() {
				source.Stop()
				if !shared {
					nc.Close()
				}
			},
		}, nil
	default:
		d := host.NewDispatcher()
		logging.Info("🔌 Хост: в памяти (взаимодействия через REST)")
		return &hostSide{
			world:        host.NewMemoryWorld(),
			presenter:    host.NewRecordingPresenter(100),
			interactions: d,
			departures:   d,
			start:        func(context.Context) error { return nil },
			stop:         func() {},
		}, nil
	}
}

// hostConn переиспользует соединение шины JetStream, если хост на том же сервере NATS
func hostConn(cfg *config.Config, bus eventbus.EventBus) (*nats.Conn, bool, error) {
	if jb, ok := bus.(*eventbus.JetStreamBus); ok && cfg.EventBus.URL == cfg.Host.NatsURL {
		return jb.Conn(), true, nil
	}
	nc, err := nats.Connect(cfg.Host.NatsURL,
		nats.Name("unlimited-mining"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	return nc, false, err
}

func busBackend(cfg config.EventBusConfig) string {
	if cfg.Backend == config.BusJetStream {
		return config.BusJetStream
	}
	return config.BusMemory
}
