package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/unlimited-mining/internal/chat"
	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/metrics"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EventSource - источник событий шахты в шине
const EventSource = "mine"

var tracer = otel.Tracer("github.com/annel0/unlimited-mining/internal/world")

// Miners - экономика игроков, которую использует шахта
type Miners interface {
	PickaxePower(ctx context.Context, playerID string) (int, error)
	CreditVoxel(ctx context.Context, playerID string, t *voxel.Type) (int, error)
}

// Config - параметры шахты
type Config struct {
	Origin     vec.Vec3 // мировая позиция вокселя (0,0,0)
	Width      int      // ширина входа по X
	Length     int      // длина входа по Y
	CellSize   vec.Vec3 // шаг решётки в мировых единицах
	VoxelTag   string   // сообщение взаимодействия вокселей
	BrickName  string   // имя кирпича во взаимодействиях
	BrickAsset string

	Entrance TypeSelector // типы вокселей входа
	Reveal   TypeSelector // типы раскрытых вокселей; nil - наследование
}

// Deps - внешние зависимости шахты
type Deps struct {
	World        host.World
	Presenter    host.Presenter
	Interactions host.Interactions
	Miners       Miners
	Bus          eventbus.EventBus    // необязательно
	Metrics      *metrics.GameMetrics // необязательно
}

// HitResult - итог удара по вокселю
type HitResult struct {
	Type      string `json:"type"`
	Remaining int    `json:"remaining"`
	Mined     bool   `json:"mined"`
	Border    bool   `json:"border"`
	Revealed  int    `json:"revealed"`
	Amount    int    `json:"amount,omitempty"`
}

// Status - снимок состояния шахты
type Status struct {
	Created  bool     `json:"created"`
	Voxels   int      `json:"voxels"`
	Width    int      `json:"width"`
	Length   int      `json:"length"`
	Origin   vec.Vec3 `json:"origin"`
	CellSize vec.Vec3 `json:"cell_size"`
	Owner    string   `json:"owner"`
}

// Mine - добываемая область в мире хоста.
// Удары и смена жизненного цикла сериализуются одним мьютексом.
type Mine struct {
	mu      sync.Mutex
	created bool
	sub     host.Subscription

	cfg    Config
	deps   Deps
	store  *Store
	reveal *RevealEngine
	logger *logging.Logger
}

// NewMine создаёт шахту; воксели появляются только после Create
func NewMine(cfg Config, deps Deps) (*Mine, error) {
	if cfg.Width <= 0 || cfg.Length <= 0 {
		return nil, fmt.Errorf("mine entrance must be at least 1x1, got %dx%d", cfg.Width, cfg.Length)
	}
	if deps.World == nil || deps.Presenter == nil || deps.Interactions == nil || deps.Miners == nil {
		return nil, fmt.Errorf("mine requires world, presenter, interactions and miners")
	}
	if cfg.Entrance == nil {
		cfg.Entrance = NewRandomSelector(0)
	}

	mapping, err := NewMapping(cfg.Origin, cfg.CellSize)
	if err != nil {
		return nil, err
	}
	store := NewStore(deps.World, mapping, StoreConfig{Tag: cfg.VoxelTag, Asset: cfg.BrickAsset})
	footprint := Footprint{Width: cfg.Width, Length: cfg.Length}

	return &Mine{
		cfg:    cfg,
		deps:   deps,
		store:  store,
		reveal: NewRevealEngine(store, 0, footprint, cfg.Reveal),
		logger: logging.GetMineLogger(),
	}, nil
}

// Store возвращает решётку шахты
func (m *Mine) Store() *Store { return m.store }

// IsCreated сообщает, создана ли шахта
func (m *Mine) IsCreated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

// Status возвращает снимок состояния
func (m *Mine) Status() Status {
	m.mu.Lock()
	created := m.created
	m.mu.Unlock()

	return Status{
		Created:  created,
		Voxels:   m.store.Len(),
		Width:    m.cfg.Width,
		Length:   m.cfg.Length,
		Origin:   m.cfg.Origin,
		CellSize: m.cfg.CellSize,
		Owner:    m.store.Owner(),
	}
}

// EntranceBlueprints возвращает воксели входа W×L на уровне z=0
func EntranceBlueprints(width, length int, selector TypeSelector) []Blueprint {
	batch := make([]Blueprint, 0, width*length)
	for x := 0; x < width; x++ {
		for y := 0; y < length; y++ {
			obscured := voxel.NewFaceSet(voxel.NegZ)
			if x == 0 {
				obscured = obscured.Add(voxel.NegX)
			}
			if x == width-1 {
				obscured = obscured.Add(voxel.PosX)
			}
			if y == 0 {
				obscured = obscured.Add(voxel.NegY)
			}
			if y == length-1 {
				obscured = obscured.Add(voxel.PosY)
			}

			pos := vec.New(x, y, 0)
			batch = append(batch, Blueprint{Position: pos, Type: selector.Select(pos), Obscured: obscured})
		}
	}
	return batch
}

// Create подписывает обработчик ударов и строит вход шахты одним пакетом
func (m *Mine) Create(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.created {
		return ErrAlreadyCreated
	}

	sub, err := m.deps.Interactions.OnInteraction(m.handleInteraction)
	if err != nil {
		return fmt.Errorf("subscribe interactions: %w", err)
	}

	batch := EntranceBlueprints(m.cfg.Width, m.cfg.Length, m.cfg.Entrance)
	if err := m.store.CreateMany(ctx, batch); err != nil {
		sub.Unsubscribe()
		m.deps.Metrics.HostError("place")
		return fmt.Errorf("create mine: %w", err)
	}

	m.sub = sub
	m.created = true
	m.deps.Metrics.SetMineVoxels(m.store.Len())
	m.logger.Info("⛏️ Шахта создана: %dx%d, %d вокселей, origin=%s", m.cfg.Width, m.cfg.Length, len(batch), m.cfg.Origin)
	m.emit(ctx, eventbus.TypeMineCreated, eventbus.MineEvent{Voxels: len(batch), Origin: m.cfg.Origin})
	return nil
}

// Clear удаляет все воксели шахты и отписывает обработчик
func (m *Mine) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.created {
		return ErrNotCreated
	}

	voxels := m.store.Len()
	if err := m.store.ClearAll(ctx); err != nil {
		m.deps.Metrics.HostError("clear")
		return err
	}
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
	m.created = false
	m.deps.Metrics.SetMineVoxels(0)
	m.logger.Info("🧹 Шахта очищена: удалено %d вокселей", voxels)
	m.emit(ctx, eventbus.TypeMineCleared, eventbus.MineEvent{Voxels: voxels, Origin: m.cfg.Origin})
	return nil
}

// Hit наносит удар по вокселю от имени игрока
func (m *Mine) Hit(ctx context.Context, playerID string, pos vec.Vec3) (HitResult, error) {
	ctx, span := tracer.Start(ctx, "Mine.Hit", trace.WithAttributes(
		attribute.String("player.id", playerID),
		attribute.String("voxel.position", pos.String()),
	))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.hitLocked(ctx, playerID, pos)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("voxel.mined", res.Mined), attribute.Int("voxel.revealed", res.Revealed))
	return res, err
}

func (m *Mine) hitLocked(ctx context.Context, playerID string, pos vec.Vec3) (HitResult, error) {
	current, ok := m.store.Get(pos)
	if !ok {
		m.deps.Metrics.Hit("missing")
		return HitResult{}, fmt.Errorf("%w at %s", ErrMissingVoxel, pos)
	}

	if !current.Breakable() {
		m.deps.Presenter.MiddlePrint(playerID, chat.Border())
		m.deps.Metrics.Hit("border")
		return HitResult{Type: current.Type.DBName, Remaining: current.HP, Border: true}, nil
	}

	power, err := m.deps.Miners.PickaxePower(ctx, playerID)
	if err != nil {
		m.deps.Metrics.Hit("error")
		return HitResult{}, fmt.Errorf("pickaxe power: %w", err)
	}

	damaged, _ := m.store.Update(pos, func(v *voxel.Voxel) { v.Damage(power) })
	m.deps.Presenter.MiddlePrint(playerID, chat.MiningProgress(damaged.Type, damaged.HP))

	res := HitResult{Type: damaged.Type.DBName, Remaining: damaged.HP}
	if damaged.HP > 0 {
		m.deps.Metrics.Hit("damaged")
		return res, nil
	}

	// Воксель с hp ≤ 0, оставшийся после неудачной записи, раскрывается повторно
	revealed, err := m.reveal.Reveal(ctx, pos, damaged)
	if err != nil {
		m.deps.Metrics.Hit("error")
		m.deps.Metrics.HostError("reveal")
		return res, fmt.Errorf("reveal %s: %w", pos, err)
	}
	res.Mined = true
	res.Revealed = revealed

	amount, err := m.deps.Miners.CreditVoxel(ctx, playerID, damaged.Type)
	if err != nil {
		m.deps.Metrics.Hit("error")
		return res, fmt.Errorf("credit voxel: %w", err)
	}
	res.Amount = amount

	m.deps.Metrics.Hit("mined")
	m.deps.Metrics.VoxelMined(damaged.Type.DBName, revealed)
	m.deps.Metrics.SetMineVoxels(m.store.Len())
	m.logger.Debug("Игрок %s добыл %s в %s, раскрыто %d", playerID, damaged.Type.Name, pos, revealed)
	m.emit(ctx, eventbus.TypeVoxelMined, eventbus.VoxelMinedEvent{
		PlayerID: playerID,
		Position: pos,
		Type:     damaged.Type.DBName,
		Revealed: revealed,
		Amount:   amount,
	})
	return res, nil
}

// handleInteraction фильтрует взаимодействия хоста и превращает их в удары.
// Ошибки логируются, обработчик никогда не паникует.
func (m *Mine) handleInteraction(ctx context.Context, in host.Interaction) {
	if in.Tag != m.cfg.VoxelTag || in.BrickName != m.cfg.BrickName {
		return
	}

	local, ok := m.store.ToLocal(in.Position)
	if !ok {
		m.logger.Warn("Позиция %s не лежит на решётке шахты, игнорируем", in.Position)
		return
	}

	_, err := m.Hit(ctx, in.PlayerID, local)
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingVoxel):
		// второй удар по только что добытой ячейке
		m.logger.Debug("Удар игрока %s по %s: %v", in.PlayerID, local, err)
	default:
		m.logger.Warn("Удар игрока %s по %s: %v", in.PlayerID, local, err)
	}
}

func (m *Mine) emit(ctx context.Context, eventType string, payload interface{}) {
	if err := eventbus.Emit(ctx, m.deps.Bus, EventSource, eventType, payload); err != nil {
		m.logger.Warn("Не удалось опубликовать %s: %v", eventType, err)
	}
}
