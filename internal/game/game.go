// Package game связывает шахту, станции и экономику игроков в один игровой режим.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/annel0/unlimited-mining/internal/chat"
	"github.com/annel0/unlimited-mining/internal/clock"
	"github.com/annel0/unlimited-mining/internal/economy"
	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/metrics"
	"github.com/annel0/unlimited-mining/internal/station"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"github.com/annel0/unlimited-mining/internal/world"
)

// ErrUnknownCommand - команда не зарегистрирована
var ErrUnknownCommand = errors.New("unknown command")

// ErrForbidden - команда доступна только администраторам
var ErrForbidden = errors.New("command requires admin")

// ErrStopped - игровой режим уже остановлен, сессия закрыта
var ErrStopped = errors.New("game stopped")

// Config - параметры игрового режима
type Config struct {
	Mine          world.Config
	Stations      station.Config
	Pricing       *economy.PricingTable
	Catalog       *voxel.Catalog
	Admins        []string // пусто - админ-команды доступны всем
	CreateOnStart bool
}

// Deps - внешние зависимости
type Deps struct {
	World        host.World
	Presenter    host.Presenter
	Interactions host.Interactions
	Departures   host.Departures
	Store        economy.Store
	Clock        clock.Clock
	Bus          eventbus.EventBus    // необязательно
	Metrics      *metrics.GameMetrics // необязательно
}

// Game - игровой режим целиком
type Game struct {
	cfg      Config
	deps     Deps
	session  *economy.Session
	mine     *world.Mine
	stations *station.Manager
	commands map[string]command
	admins   map[string]bool
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
	stopped bool
	leave   host.Subscription
}

// New собирает игровой режим; подписки появляются только в Init
func New(cfg Config, deps Deps) (*Game, error) {
	if deps.Departures == nil {
		return nil, fmt.Errorf("game requires departures source")
	}
	if cfg.Pricing == nil {
		cfg.Pricing = economy.DefaultPricing()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = voxel.DefaultCatalog()
	}

	g := &Game{
		cfg:    cfg,
		deps:   deps,
		admins: make(map[string]bool, len(cfg.Admins)),
		logger: logging.GetGameLogger(),
	}
	for _, id := range cfg.Admins {
		g.admins[id] = true
	}

	names, _ := deps.Presenter.(economy.NameResolver)
	g.session = economy.NewSession(economy.SessionConfig{
		Store:   deps.Store,
		Catalog: cfg.Catalog,
		Names:   names,
		OnJoin:  g.onJoin,
	})

	mine, err := world.NewMine(cfg.Mine, world.Deps{
		World:        deps.World,
		Presenter:    deps.Presenter,
		Interactions: deps.Interactions,
		Miners:       g.session,
		Bus:          deps.Bus,
		Metrics:      deps.Metrics,
	})
	if err != nil {
		return nil, err
	}
	g.mine = mine

	g.stations = station.NewManager(cfg.Stations, station.Deps{
		Players:      g.session,
		Pricing:      cfg.Pricing,
		Presenter:    deps.Presenter,
		Interactions: deps.Interactions,
		Clock:        deps.Clock,
		Bus:          deps.Bus,
		Metrics:      deps.Metrics,
	})

	g.registerCommands()
	return g, nil
}

// Session возвращает сессию игроков
func (g *Game) Session() *economy.Session { return g.session }

// Mine возвращает шахту
func (g *Game) Mine() *world.Mine { return g.mine }

// Stations возвращает менеджер станций
func (g *Game) Stations() *station.Manager { return g.stations }

// Pricing возвращает таблицу цен
func (g *Game) Pricing() *economy.PricingTable { return g.cfg.Pricing }

// Init запускает станции, подписку на выход игроков и, если задано, создает шахту
func (g *Game) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return nil
	}
	if g.stopped {
		return ErrStopped
	}

	if err := g.stations.Start(); err != nil {
		return err
	}
	sub, err := g.deps.Departures.OnLeave(g.handleLeave)
	if err != nil {
		g.stations.Stop()
		return fmt.Errorf("subscribe departures: %w", err)
	}
	g.leave = sub

	if g.cfg.CreateOnStart {
		if err := g.mine.Create(ctx); err != nil {
			g.logger.Error("❌ Не удалось создать шахту при старте: %v", err)
		}
	}

	g.running = true
	g.logger.Info("✅ Unlimited Mining запущен")
	return nil
}

// Stop снимает подписки, очищает шахту и сохраняет всех игроков
func (g *Game) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return nil
	}
	g.running = false
	g.stopped = true

	g.stations.Stop()
	if g.leave != nil {
		g.leave.Unsubscribe()
		g.leave = nil
	}

	var errs []error
	if err := g.mine.Clear(ctx); err != nil && !errors.Is(err, world.ErrNotCreated) {
		errs = append(errs, fmt.Errorf("clear mine: %w", err))
	}
	if err := g.session.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	g.logger.Info("🛑 Unlimited Mining остановлен")
	return errors.Join(errs...)
}

// MineStatus возвращает состояние шахты
func (g *Game) MineStatus() world.Status { return g.mine.Status() }

// CreateMine строит вход шахты
func (g *Game) CreateMine(ctx context.Context) error { return g.mine.Create(ctx) }

// ClearMine удаляет все воксели шахты
func (g *Game) ClearMine(ctx context.Context) error { return g.mine.Clear(ctx) }

// Interact передает взаимодействие подписчикам, если источник - диспетчер
func (g *Game) Interact(ctx context.Context, in host.Interaction) error {
	d, ok := g.deps.Interactions.(interface {
		Interact(context.Context, host.Interaction)
	})
	if !ok {
		return fmt.Errorf("interactions source does not accept injected events")
	}
	d.Interact(ctx, in)
	return nil
}

// Hit бьет по вокселю в локальных координатах
func (g *Game) Hit(ctx context.Context, playerID string, pos vec.Vec3) (world.HitResult, error) {
	return g.mine.Hit(ctx, playerID, pos)
}

// PlayerStats возвращает статистику игрока, загружая его при необходимости
func (g *Game) PlayerStats(ctx context.Context, playerID string) (economy.Stats, error) {
	p, err := g.session.Player(ctx, playerID)
	if err != nil {
		return economy.Stats{}, err
	}
	return p.Stats(g.cfg.Pricing), nil
}

// Leave сохраняет игрока и выгружает его из сессии
func (g *Game) Leave(ctx context.Context, playerID string) error {
	g.stations.Forget(playerID)
	err := g.session.Leave(ctx, playerID)
	g.deps.Metrics.SetPlayersLoaded(len(g.session.PlayerIDs()))
	if err != nil {
		g.logger.Error("Не удалось сохранить игрока %s при выходе: %v", playerID, err)
		return err
	}
	return nil
}

func (g *Game) handleLeave(ctx context.Context, playerID string) {
	_ = g.Leave(ctx, playerID)
}

// onJoin показывает справку при первом обращении к игроку
func (g *Game) onJoin(_ context.Context, p *economy.Player) {
	g.deps.Presenter.Whisper(p.ID(), chat.Help()...)
	g.deps.Metrics.SetPlayersLoaded(len(g.session.PlayerIDs()))
	g.logger.Info("👤 Игрок %s присоединился к добыче", p.Name())
}

// IsAdmin сообщает, доступны ли игроку админ-команды
func (g *Game) IsAdmin(playerID string) bool {
	return len(g.admins) == 0 || g.admins[playerID]
}

func normalizeCommand(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
