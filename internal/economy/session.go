package economy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"golang.org/x/sync/singleflight"
)

// Store - непрозрачное хранилище ключ/значение для записей игроков
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// NameResolver возвращает отображаемое имя игрока
type NameResolver interface {
	DisplayName(ctx context.Context, playerID string) (string, error)
}

// SessionConfig - зависимости сессии
type SessionConfig struct {
	Store   Store
	Catalog *voxel.Catalog
	Names   NameResolver
	// OnJoin вызывается один раз при первой загрузке игрока в сессию
	OnJoin func(ctx context.Context, p *Player)
}

// Session владеет экономическим состоянием всех игроков на время работы сервера
type Session struct {
	mu      sync.RWMutex
	players map[string]*Player
	closed  bool

	group   singleflight.Group
	store   Store
	catalog *voxel.Catalog
	names   NameResolver
	onJoin  func(ctx context.Context, p *Player)
	logger  *logging.Logger
}

// NewSession создаёт сессию
func NewSession(cfg SessionConfig) *Session {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = voxel.DefaultCatalog()
	}
	return &Session{
		players: make(map[string]*Player),
		store:   cfg.Store,
		catalog: catalog,
		names:   cfg.Names,
		onJoin:  cfg.OnJoin,
		logger:  logging.GetEconomyLogger(),
	}
}

// Player возвращает состояние игрока, загружая его при первом обращении.
// Одновременные первые обращения к одному id выполняют загрузку один раз.
func (s *Session) Player(ctx context.Context, id string) (*Player, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrSessionClosed
	}
	p, ok := s.players[id]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		s.mu.RLock()
		existing, ok := s.players[id]
		s.mu.RUnlock()
		if ok {
			return existing, nil
		}

		loaded, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrSessionClosed
		}
		s.players[id] = loaded
		s.mu.Unlock()

		s.logger.Debug("Игрок %s (%s) загружен в сессию", loaded.Name(), id)
		if s.onJoin != nil {
			s.onJoin(ctx, loaded)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Player), nil
}

func (s *Session) load(ctx context.Context, id string) (*Player, error) {
	p := NewPlayer(id)

	if s.store != nil {
		data, found, err := s.store.Get(ctx, RecordKey(id))
		if err != nil {
			return nil, fmt.Errorf("load player %s: %w", id, err)
		}
		if found {
			rec, err := UnmarshalRecord(data)
			if err != nil {
				return nil, fmt.Errorf("load player %s: %w", id, err)
			}
			for _, key := range p.applyRecord(rec, s.catalog) {
				s.logger.Warn("Неизвестный тип ресурса %q в записи игрока %s пропущен", key, id)
			}
		}
	}

	if s.names != nil {
		name, err := s.names.DisplayName(ctx, id)
		if err != nil {
			s.logger.Warn("Не удалось получить имя игрока %s: %v", id, err)
		} else {
			p.SetName(name)
		}
	}
	return p, nil
}

// Loaded возвращает игрока, только если он уже в сессии
func (s *Session) Loaded(id string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	return p, ok
}

// PlayerIDs возвращает отсортированный список загруженных игроков
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save сохраняет игрока; незагруженный игрок пропускается
func (s *Session) Save(ctx context.Context, id string) error {
	p, ok := s.Loaded(id)
	if !ok {
		return nil
	}
	return s.save(ctx, p)
}

func (s *Session) save(ctx context.Context, p *Player) error {
	if s.store == nil {
		return nil
	}
	data, err := MarshalRecord(p.Record())
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, RecordKey(p.ID()), data); err != nil {
		return fmt.Errorf("save player %s: %w", p.ID(), err)
	}
	return nil
}

// SaveAll сохраняет всех загруженных игроков
func (s *Session) SaveAll(ctx context.Context) error {
	s.mu.RLock()
	players := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	s.mu.RUnlock()

	var errs []error
	for _, p := range players {
		if err := s.save(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Debug("Сохранено игроков: %d", len(players))
	return nil
}

// Leave сохраняет игрока и удаляет его из сессии.
// При ошибке сохранения игрок остаётся в памяти.
func (s *Session) Leave(ctx context.Context, id string) error {
	p, ok := s.Loaded(id)
	if !ok {
		return nil
	}
	if err := s.save(ctx, p); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.players, id)
	s.mu.Unlock()
	s.logger.Debug("Игрок %s покинул сессию", id)
	return nil
}

// Close сохраняет всех игроков и закрывает сессию
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	err := s.SaveAll(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// PickaxePower возвращает силу кирки игрока
func (s *Session) PickaxePower(ctx context.Context, playerID string) (int, error) {
	p, err := s.Player(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return p.PickaxePower(), nil
}

// CreditVoxel зачисляет игроку одну единицу добытого типа
func (s *Session) CreditVoxel(ctx context.Context, playerID string, t *voxel.Type) (int, error) {
	p, err := s.Player(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return p.AddResource(t, 1)
}
