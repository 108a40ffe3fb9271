package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore хранит записи во встроенной BadgerDB
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerStore открывает (или создает) базу в dataPath/players
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	dbPath := filepath.Join(dataPath, "players")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Path возвращает каталог базы
func (s *BadgerStore) Path() string { return s.dbPath }

// Get читает значение в транзакции только для чтения
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, false, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, false, ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return value, true, nil
}

// Set записывает значение
func (s *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Delete удаляет ключ
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// Keys возвращает все ключи с префиксом
func (s *BadgerStore) Keys(prefix string) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrClosed
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Close закрывает базу
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	return s.db.Close()
}
