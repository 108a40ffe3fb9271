package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaStore хранит записи в таблице player_records MariaDB/MySQL
type MariaStore struct {
	db *sql.DB
}

// NewMariaStore подключается к базе и создает таблицу, если ее нет.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaStore(ctx context.Context, dsn string) (*MariaStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	s := &MariaStore{db: db}
	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return s, nil
}

func (s *MariaStore) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS player_records (
			record_key   VARCHAR(191) PRIMARY KEY,
			record_value LONGBLOB     NOT NULL,
			updated_at   TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			             ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы player_records: %w", err)
	}
	return nil
}

// Get читает значение
func (s *MariaStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, false, err
	}

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record_value FROM player_records WHERE record_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки записи %s: %w", key, err)
	}
	return value, true, nil
}

// Set записывает значение через INSERT ... ON DUPLICATE KEY UPDATE
func (s *MariaStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}

	query := `
		INSERT INTO player_records (record_key, record_value)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			record_value = VALUES(record_value),
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения записи %s: %w", key, err)
	}
	return nil
}

// Delete удаляет запись
func (s *MariaStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM player_records WHERE record_key = ?`, key); err != nil {
		return fmt.Errorf("ошибка удаления записи %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с базой
func (s *MariaStore) Close() error {
	return s.db.Close()
}
