// Package station обрабатывает станции продажи ресурсов и улучшения кирки.
package station

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/unlimited-mining/internal/chat"
	"github.com/annel0/unlimited-mining/internal/clock"
	"github.com/annel0/unlimited-mining/internal/economy"
	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/gate"
	"github.com/annel0/unlimited-mining/internal/host"
	"github.com/annel0/unlimited-mining/internal/logging"
	"github.com/annel0/unlimited-mining/internal/metrics"
)

// Теги станций по умолчанию
const (
	DefaultSellTag    = "um:sellall"
	DefaultUpgradeTag = "um:upgradepick"

	// EventSource - источник событий станций в шине
	EventSource = "station"
)

// Players - доступ к экономике игроков
type Players interface {
	Player(ctx context.Context, id string) (*economy.Player, error)
	Save(ctx context.Context, id string) error
}

// Config - параметры станций
type Config struct {
	SellTag    string
	UpgradeTag string
	Window     time.Duration
}

// Deps - зависимости станций
type Deps struct {
	Players      Players
	Pricing      *economy.PricingTable
	Presenter    host.Presenter
	Interactions host.Interactions
	Clock        clock.Clock
	Bus          eventbus.EventBus    // необязательно
	Metrics      *metrics.GameMetrics // необязательно
}

// Outcome - итог нажатия на станцию
type Outcome string

const (
	OutcomeEmpty     Outcome = "empty"     // продавать нечего
	OutcomePrompt    Outcome = "prompt"    // ждём подтверждения
	OutcomeConfirmed Outcome = "confirmed" // действие выполнено
	OutcomeRejected  Outcome = "rejected"  // не хватает денег
)

// Manager слушает взаимодействия со станциями
type Manager struct {
	cfg     Config
	deps    Deps
	sell    *gate.Gate
	upgrade *gate.Gate
	logger  *logging.Logger

	mu  sync.Mutex
	sub host.Subscription
}

// NewManager создаёт менеджер станций
func NewManager(cfg Config, deps Deps) *Manager {
	if cfg.SellTag == "" {
		cfg.SellTag = DefaultSellTag
	}
	if cfg.UpgradeTag == "" {
		cfg.UpgradeTag = DefaultUpgradeTag
	}
	if deps.Pricing == nil {
		deps.Pricing = economy.DefaultPricing()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	return &Manager{
		cfg:     cfg,
		deps:    deps,
		sell:    gate.New(deps.Clock, cfg.Window),
		upgrade: gate.New(deps.Clock, cfg.Window),
		logger:  logging.GetStationLogger(),
	}
}

// Start подписывается на взаимодействия
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return nil
	}

	sub, err := m.deps.Interactions.OnInteraction(m.handleInteraction)
	if err != nil {
		return fmt.Errorf("subscribe stations: %w", err)
	}
	m.sub = sub
	m.logger.Info("🏪 Станции запущены: %s, %s (окно %s)", m.cfg.SellTag, m.cfg.UpgradeTag, m.sell.Window())
	return nil
}

// Stop отписывается от взаимодействий
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
}

func (m *Manager) handleInteraction(ctx context.Context, in host.Interaction) {
	var err error
	switch in.Tag {
	case m.cfg.SellTag:
		_, err = m.SellAll(ctx, in.PlayerID)
	case m.cfg.UpgradeTag:
		_, err = m.UpgradePickaxe(ctx, in.PlayerID)
	default:
		return
	}
	if err != nil {
		m.logger.Error("Ошибка станции %s для игрока %s: %v", in.Tag, in.PlayerID, err)
	}
}

// SellAll обрабатывает нажатие на станцию продажи
func (m *Manager) SellAll(ctx context.Context, playerID string) (Outcome, error) {
	p, err := m.deps.Players.Player(ctx, playerID)
	if err != nil {
		return "", err
	}

	if !p.HasResources() {
		m.sell.Cancel(playerID)
		m.deps.Presenter.MiddlePrint(playerID, chat.InventoryEmpty())
		m.deps.Metrics.StationPress("sell", string(OutcomeEmpty))
		return OutcomeEmpty, nil
	}

	if !m.sell.TryConfirm(playerID) {
		whisper, middle := chat.SellPrompt(p.InventoryValue(m.deps.Pricing))
		m.deps.Presenter.Whisper(playerID, whisper...)
		m.deps.Presenter.MiddlePrint(playerID, middle)
		m.deps.Metrics.StationPress("sell", string(OutcomePrompt))
		return OutcomePrompt, nil
	}

	value := p.SellAll(m.deps.Pricing)
	whisper, middle := chat.Sold(value)
	m.deps.Presenter.MiddlePrint(playerID, middle)
	m.deps.Presenter.Whisper(playerID, whisper)
	m.deps.Metrics.StationPress("sell", string(OutcomeConfirmed))
	m.deps.Metrics.Sold(value)
	m.logger.Info("💰 Игрок %s продал ресурсы за $%s", p.Name(), chat.Money(value))
	m.emit(ctx, eventbus.TypeResourcesSold, eventbus.ResourcesSoldEvent{PlayerID: playerID, Value: value, Money: p.Money()})

	if err := m.deps.Players.Save(ctx, playerID); err != nil {
		return OutcomeConfirmed, fmt.Errorf("save after sell: %w", err)
	}
	return OutcomeConfirmed, nil
}

// UpgradePickaxe обрабатывает нажатие на станцию улучшения
func (m *Manager) UpgradePickaxe(ctx context.Context, playerID string) (Outcome, error) {
	p, err := m.deps.Players.Player(ctx, playerID)
	if err != nil {
		return "", err
	}

	cost := p.UpgradeCost()
	if money := p.Money(); cost > money {
		m.upgrade.Cancel(playerID)
		m.deps.Presenter.MiddlePrint(playerID, chat.CannotUpgrade(cost-money))
		m.deps.Metrics.StationPress("upgrade", string(OutcomeRejected))
		return OutcomeRejected, nil
	}

	if !m.upgrade.TryConfirm(playerID) {
		whisper, middle := chat.UpgradePrompt(cost)
		m.deps.Presenter.Whisper(playerID, whisper...)
		m.deps.Presenter.MiddlePrint(playerID, middle)
		m.deps.Metrics.StationPress("upgrade", string(OutcomePrompt))
		return OutcomePrompt, nil
	}

	res := p.TryUpgradePickaxe()
	if !res.Upgraded {
		// Баланс изменился между нажатиями
		m.deps.Presenter.MiddlePrint(playerID, chat.CannotUpgrade(res.Shortfall))
		m.deps.Metrics.StationPress("upgrade", string(OutcomeRejected))
		return OutcomeRejected, nil
	}

	whisper, middle := chat.Upgraded(res.Level, res.Cost)
	m.deps.Presenter.Whisper(playerID, whisper)
	m.deps.Presenter.MiddlePrint(playerID, middle)
	m.deps.Metrics.StationPress("upgrade", string(OutcomeConfirmed))
	m.deps.Metrics.Upgraded()
	m.logger.Info("⚒️ Игрок %s улучшил кирку до уровня %d", p.Name(), res.Level)
	m.emit(ctx, eventbus.TypePickaxeUpgraded, eventbus.PickaxeUpgradedEvent{PlayerID: playerID, Level: res.Level, Cost: res.Cost})

	if err := m.deps.Players.Save(ctx, playerID); err != nil {
		return OutcomeConfirmed, fmt.Errorf("save after upgrade: %w", err)
	}
	return OutcomeConfirmed, nil
}

// Forget снимает ожидающие подтверждения игрока (при выходе)
func (m *Manager) Forget(playerID string) {
	m.sell.Cancel(playerID)
	m.upgrade.Cancel(playerID)
}

func (m *Manager) emit(ctx context.Context, eventType string, payload interface{}) {
	if err := eventbus.Emit(ctx, m.deps.Bus, EventSource, eventType, payload); err != nil {
		m.logger.Warn("Не удалось опубликовать %s: %v", eventType, err)
	}
}
