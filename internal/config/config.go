package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/station"
	"github.com/annel0/unlimited-mining/internal/storage"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/world"
)

// Переменные окружения
const (
	EnvConfig      = "UM_CONFIG"
	EnvRESTPort    = "UM_REST_PORT"
	EnvMetricsPort = "UM_METRICS_PORT"
)

// ErrInvalid оборачивает все ошибки проверки конфигурации
var ErrInvalid = errors.New("invalid config")

// Config корневая структура конфигурации приложения.
type Config struct {
	Mine      MineConfig      `yaml:"mine"`
	Stations  StationsConfig  `yaml:"stations"`
	Storage   storage.Config  `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Host      HostConfig      `yaml:"host"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type MineConfig struct {
	Origin           [3]int `yaml:"origin"`
	Width            int    `yaml:"width"`
	Length           int    `yaml:"length"`
	CellSize         int    `yaml:"cell_size"`
	VoxelTag         string `yaml:"voxel_tag"`
	BrickName        string `yaml:"brick_name"`
	BrickAsset       string `yaml:"brick_asset"`
	EntranceSelector string `yaml:"entrance_selector"`
	RevealSelector   string `yaml:"reveal_selector"`
	Seed             int64  `yaml:"seed"`
	CreateOnStart    bool   `yaml:"create_on_start"`
}

type StationsConfig struct {
	ConfirmWindow time.Duration `yaml:"confirm_window"`
	SellTag       string        `yaml:"sell_tag"`
	UpgradeTag    string        `yaml:"upgrade_tag"`
}

// Реализации шины событий
const (
	BusMemory    = "memory"
	BusJetStream = "jetstream"
)

type EventBusConfig struct {
	Backend   string `yaml:"backend"`
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

// Реализации хоста
const (
	HostMemory = "memory"
	HostNats   = "nats"
)

type HostConfig struct {
	Backend        string        `yaml:"backend"`
	NatsURL        string        `yaml:"nats_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Files bool   `yaml:"files"`
	// Components переопределяет уровень отдельных компонентов (mine: DEBUG)
	Components map[string]string `yaml:"components"`
}

// Default возвращает значения исходного плагина
func Default() *Config {
	return &Config{
		Mine: MineConfig{
			Origin:           [3]int{153, -13, 341},
			Width:            10,
			Length:           20,
			CellSize:         20,
			VoxelTag:         "um:voxel",
			BrickName:        "20x Micro-Brick Cube",
			BrickAsset:       "PB_DefaultMicroBrick",
			EntranceSelector: world.SelectorRandom,
			RevealSelector:   world.SelectorInherit,
		},
		Stations: StationsConfig{
			ConfirmWindow: 5 * time.Second,
			SellTag:       station.DefaultSellTag,
			UpgradeTag:    station.DefaultUpgradeTag,
		},
		Storage: storage.Config{
			Backend:  storage.BackendBadger,
			DataPath: "data",
			Redis:    storage.DefaultRedisConfig(),
		},
		EventBus: EventBusConfig{
			Backend:   BusMemory,
			URL:       "nats://127.0.0.1:4222",
			Stream:    "MINING",
			Retention: 24,
			Capacity:  1024,
		},
		Host: HostConfig{
			Backend:        HostMemory,
			NatsURL:        "nats://127.0.0.1:4222",
			RequestTimeout: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{ServiceName: "unlimited-mining"},
		Logging:   LoggingConfig{Level: "INFO"},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, EnvRESTPort, 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, EnvMetricsPort, 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// RetentionDuration возвращает срок хранения потока
func (e EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// Load читает YAML файл поверх значений по умолчанию.
// Если path == "", берется UM_CONFIG; без файла возвращается Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path == "" {
		logging.Debug("Файл конфигурации не задан, используются значения по умолчанию")
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	m := c.Mine
	if m.Width <= 0 || m.Length <= 0 {
		bad("mine footprint must be positive, got %dx%d", m.Width, m.Length)
	}
	if m.CellSize <= 0 || m.CellSize%2 != 0 {
		bad("mine.cell_size must be a positive even number, got %d", m.CellSize)
	}
	for _, name := range []string{m.EntranceSelector, m.RevealSelector} {
		if _, err := world.NewSelector(name, m.Seed); err != nil {
			bad("%v", err)
		}
	}
	if m.EntranceSelector == world.SelectorInherit {
		bad("mine.entrance_selector cannot be %q", world.SelectorInherit)
	}
	if c.Stations.ConfirmWindow < 0 {
		bad("stations.confirm_window must not be negative")
	}
	if c.Stations.SellTag != "" && c.Stations.SellTag == c.Stations.UpgradeTag {
		bad("stations.sell_tag and upgrade_tag must differ")
	}
	if c.Storage.Backend != "" && !storage.IsKnownBackend(c.Storage.Backend) {
		bad("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.EventBus.Backend {
	case "", BusMemory, BusJetStream:
	default:
		bad("unknown eventbus backend %q", c.EventBus.Backend)
	}
	switch c.Host.Backend {
	case "", HostMemory, HostNats:
	default:
		bad("unknown host backend %q", c.Host.Backend)
	}
	if c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			bad("%v", err)
		}
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		bad("telemetry sample_ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}
	for component, level := range c.Logging.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			bad("logging component %s: %v", component, err)
		}
	}
	return errors.Join(errs...)
}

// WorldConfig собирает конфигурацию шахты
func (m MineConfig) WorldConfig() (world.Config, error) {
	entrance, err := world.NewSelector(m.EntranceSelector, m.Seed)
	if err != nil {
		return world.Config{}, err
	}
	reveal, err := world.NewSelector(m.RevealSelector, m.Seed+1)
	if err != nil {
		return world.Config{}, err
	}
	return world.Config{
		Origin:     vec.FromArray(m.Origin),
		Width:      m.Width,
		Length:     m.Length,
		CellSize:   vec.New(m.CellSize, m.CellSize, m.CellSize),
		VoxelTag:   m.VoxelTag,
		BrickName:  m.BrickName,
		BrickAsset: m.BrickAsset,
		Entrance:   entrance,
		Reveal:     reveal,
	}, nil
}

// StationConfig собирает конфигурацию станций
func (s StationsConfig) StationConfig() station.Config {
	return station.Config{
		SellTag:    s.SellTag,
		UpgradeTag: s.UpgradeTag,
		Window:     s.ConfirmWindow,
	}
}
