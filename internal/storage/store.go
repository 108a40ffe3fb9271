// Package storage хранит сериализованные записи игроков по строковому ключу.
package storage

import (
	"context"
	"errors"
)

// ErrClosed возвращается при обращении к закрытому хранилищу
var ErrClosed = errors.New("storage: closed")

// ErrEmptyKey возвращается для пустого ключа
var ErrEmptyKey = errors.New("storage: empty key")

// PlayerStore - непрозрачное ключ-значение хранилище записей игроков.
// Значение хранится как есть, формат определяет вызывающая сторона.
type PlayerStore interface {
	// Get возвращает значение; found=false если ключа нет
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set записывает значение, перезаписывая существующее
	Set(ctx context.Context, key string, value []byte) error

	// Delete удаляет ключ; отсутствие ключа не ошибка
	Delete(ctx context.Context, key string) error

	// Close освобождает ресурсы
	Close() error
}

func checkKey(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return ctx.Err()
}
