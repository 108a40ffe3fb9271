package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/unlimited-mining/internal/logging"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        `yaml:"addr"`       // Адрес Redis сервера
	Password  string        `yaml:"password"`   // Пароль (пустой если не требуется)
	DB        int           `yaml:"db"`         // Номер базы данных
	KeyPrefix string        `yaml:"key_prefix"` // Префикс для ключей
	TTL       time.Duration `yaml:"ttl"`        // Время жизни записей, 0 - без истечения
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "um:",
	}
}

// RedisStore хранит записи в Redis
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultRedisConfig().Addr
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s", cfg.Addr)
	return NewRedisStoreFromClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisStoreFromClient оборачивает готовый клиент
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) key(key string) string {
	return s.keyPrefix + key
}

// Get читает значение
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, false, err
	}

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set записывает значение с TTL из конфигурации
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete удаляет ключ
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close закрывает клиент
func (s *RedisStore) Close() error {
	return s.client.Close()
}
