package world

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"github.com/google/uuid"
)

// OwnerPrefix - префикс тега владельца кирпичей хранилища
const OwnerPrefix = "um-voxel-store-"

// Blueprint описывает воксель, который нужно создать
type Blueprint struct {
	Position vec.Vec3
	Type     *voxel.Type
	Obscured voxel.FaceSet
}

// StoreConfig - параметры кирпичей хранилища
type StoreConfig struct {
	Tag   string // сообщение взаимодействия кирпичей
	Asset string // ассет кирпича на хосте
}

// Store - разреженная решётка вокселей, синхронизированная с миром хоста.
// Одно хранилище владеет одним отображением и одним тегом владельца.
type Store struct {
	mu      sync.RWMutex
	voxels  map[vec.Vec3]*voxel.Voxel
	mapping Mapping
	world   host.World
	owner   string
	cfg     StoreConfig
}

// NewStore создаёт хранилище с уникальным тегом владельца
func NewStore(world host.World, mapping Mapping, cfg StoreConfig) *Store {
	return &Store{
		voxels:  make(map[vec.Vec3]*voxel.Voxel),
		mapping: mapping,
		world:   world,
		owner:   OwnerPrefix + uuid.NewString(),
		cfg:     cfg,
	}
}

// Owner возвращает тег владельца кирпичей
func (s *Store) Owner() string { return s.owner }

// Mapping возвращает отображение координат
func (s *Store) Mapping() Mapping { return s.mapping }

// ToWorld переводит позицию решётки в мировую
func (s *Store) ToWorld(p vec.Vec3) vec.Vec3 { return s.mapping.ToWorld(p) }

// ToLocal переводит мировую позицию в решётку
func (s *Store) ToLocal(w vec.Vec3) (vec.Vec3, bool) { return s.mapping.ToLocal(w) }

// CreateMany создаёт пакет вокселей одной записью в мир хоста.
// Решётка меняется только после успешной записи; существующие позиции перезаписываются.
func (s *Store) CreateMany(ctx context.Context, batch []Blueprint) error {
	if len(batch) == 0 {
		return nil
	}

	seen := make(map[vec.Vec3]struct{}, len(batch))
	bricks := make([]host.Brick, 0, len(batch))
	for _, bp := range batch {
		if _, dup := seen[bp.Position]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePosition, bp.Position)
		}
		seen[bp.Position] = struct{}{}
		bricks = append(bricks, s.brick(bp))
	}

	if err := s.world.PlaceBricks(ctx, s.owner, bricks); err != nil {
		return fmt.Errorf("place %d voxels: %w", len(batch), err)
	}

	s.mu.Lock()
	for _, bp := range batch {
		s.voxels[bp.Position] = voxel.New(bp.Type, bp.Obscured)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) brick(bp Blueprint) host.Brick {
	return host.Brick{
		Position: s.mapping.ToWorld(bp.Position),
		Size:     s.mapping.BrickExtent(),
		Asset:    s.cfg.Asset,
		Color:    bp.Type.Color,
		Material: bp.Type.EffectiveMaterial(),
		Tag:      s.cfg.Tag,
	}
}

// Delete удаляет воксель; отсутствующая позиция - не ошибка.
// При ошибке хоста запись остаётся в решётке.
func (s *Store) Delete(ctx context.Context, p vec.Vec3) error {
	if !s.Has(p) {
		return nil
	}

	if err := s.world.ClearRegion(ctx, s.mapping.ToWorld(p), s.mapping.BrickExtent()); err != nil {
		return fmt.Errorf("delete voxel %s: %w", p, err)
	}

	s.mu.Lock()
	delete(s.voxels, p)
	s.mu.Unlock()
	return nil
}

// ClearAll удаляет все кирпичи владельца и очищает решётку
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.world.ClearOwner(ctx, s.owner); err != nil {
		return fmt.Errorf("clear voxels: %w", err)
	}

	s.mu.Lock()
	s.voxels = make(map[vec.Vec3]*voxel.Voxel)
	s.mu.Unlock()
	return nil
}

// Get возвращает копию вокселя
func (s *Store) Get(p vec.Vec3) (voxel.Voxel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.voxels[p]
	if !ok {
		return voxel.Voxel{}, false
	}
	return *v, true
}

// Has проверяет наличие вокселя
func (s *Store) Has(p vec.Vec3) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.voxels[p]
	return ok
}

// Update изменяет воксель под блокировкой и возвращает его новую копию
func (s *Store) Update(p vec.Vec3, fn func(v *voxel.Voxel)) (voxel.Voxel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voxels[p]
	if !ok {
		return voxel.Voxel{}, false
	}
	fn(v)
	return *v, true
}

// ClearFace снимает отметку скрытой грани у вокселя в позиции p
func (s *Store) ClearFace(p vec.Vec3, f voxel.Face) {
	s.Update(p, func(v *voxel.Voxel) {
		v.Obscured = v.Obscured.Remove(f)
	})
}

// Len возвращает число вокселей
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.voxels)
}

// Positions возвращает позиции вокселей в детерминированном порядке
func (s *Store) Positions() []vec.Vec3 {
	s.mu.RLock()
	out := make([]vec.Vec3, 0, len(s.voxels))
	for p := range s.voxels {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}
