package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/annel0/unlimited-mining/internal/logging"
)

// Поддерживаемые бэкенды
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Backends перечисляет допустимые значения Config.Backend
var Backends = []string{BackendMemory, BackendBadger, BackendRedis, BackendMySQL, BackendMongo, BackendSQLite}

// Config - выбор и настройки хранилища
type Config struct {
	Backend  string      `yaml:"backend"`
	DataPath string      `yaml:"data_path"` // badger и sqlite
	MySQLDSN string      `yaml:"mysql_dsn"`
	Redis    RedisConfig `yaml:"redis"`
	Mongo    MongoConfig `yaml:"mongo"`
	Compress bool        `yaml:"compress"`
}

// IsKnownBackend проверяет имя бэкенда
func IsKnownBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// Open создает хранилище по конфигурации
func Open(ctx context.Context, cfg Config) (PlayerStore, error) {
	logger := logging.GetStorageLogger()

	var (
		store PlayerStore
		err   error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		logger.Warn("⚠️ Используется хранилище в памяти, данные игроков не переживут перезапуск")
		store = NewMemoryStore()
	case BackendBadger:
		store, err = NewBadgerStore(dataPath(cfg))
	case BackendRedis:
		store, err = NewRedisStore(ctx, cfg.Redis)
	case BackendMySQL:
		store, err = NewMariaStore(ctx, cfg.MySQLDSN)
	case BackendMongo:
		store, err = NewMongoStore(ctx, cfg.Mongo)
	case BackendSQLite:
		store, err = NewSQLiteStore(ctx, filepath.Join(dataPath(cfg), "players.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Backend, err)
	}

	if cfg.Compress {
		compressed, err := NewCompressedStore(store)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = compressed
	}

	logger.Info("💾 Хранилище игроков: %s (сжатие: %v)", backendName(cfg.Backend), cfg.Compress)
	return store, nil
}

func dataPath(cfg Config) string {
	if cfg.DataPath == "" {
		return "data"
	}
	return cfg.DataPath
}

func backendName(b string) string {
	if b == "" {
		return BackendMemory
	}
	return b
}
