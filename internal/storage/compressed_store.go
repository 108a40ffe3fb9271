package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Заголовок кадра zstd
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// CompressedStore сжимает значения zstd перед записью во вложенное хранилище.
// Несжатые значения, записанные раньше, читаются как есть.
type CompressedStore struct {
	inner PlayerStore
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressedStore оборачивает хранилище
func NewCompressedStore(inner PlayerStore) (*CompressedStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &CompressedStore{inner: inner, enc: enc, dec: dec}, nil
}

// Inner возвращает вложенное хранилище
func (s *CompressedStore) Inner() PlayerStore { return s.inner }

// Get читает и распаковывает значение
func (s *CompressedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return data, found, err
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, true, nil
	}
	out, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("zstd decode %s: %w", key, err)
	}
	return out, true, nil
}

// Set сжимает и записывает значение
func (s *CompressedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.inner.Set(ctx, key, s.enc.EncodeAll(value, nil))
}

// Delete удаляет ключ во вложенном хранилище
func (s *CompressedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Close закрывает кодеки и вложенное хранилище
func (s *CompressedStore) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		_ = s.inner.Close()
		return err
	}
	return s.inner.Close()
}
