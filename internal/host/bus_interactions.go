package host

import (
	"context"
	"sync"

	"github.com/annel0/unlimited-mining/internal/eventbus"
	"github.com/annel0/unlimited-mining/internal/logging"
)

// BusSource - имя источника событий, публикуемых хостом
const BusSource = "host"

// BusInteractions получает взаимодействия и выходы игроков из шины событий.
// Обработчики шины выполняются на отдельных горутинах.
type BusInteractions struct {
	bus        eventbus.EventBus
	dispatcher *Dispatcher
	logger     *logging.Logger

	mu  sync.Mutex
	sub eventbus.Subscription
}

// NewBusInteractions создаёт источник поверх шины; Start подписывает его
func NewBusInteractions(bus eventbus.EventBus) *BusInteractions {
	return &BusInteractions{
		bus:        bus,
		dispatcher: NewDispatcher(),
		logger:     logging.GetHostLogger(),
	}
}

// Start подписывается на события interaction и player_leave
func (b *BusInteractions) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		return nil
	}

	filter := eventbus.Filter{Types: []string{eventbus.TypeInteraction, eventbus.TypePlayerLeave}}
	sub, err := b.bus.Subscribe(ctx, filter, b.handle)
	if err != nil {
		return err
	}
	b.sub = sub
	return nil
}

// Stop освобождает подписку на шину
func (b *BusInteractions) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		b.sub.Unsubscribe()
		b.sub = nil
	}
}

// OnInteraction регистрирует обработчик взаимодействий
func (b *BusInteractions) OnInteraction(h InteractionHandler) (Subscription, error) {
	return b.dispatcher.OnInteraction(h)
}

// OnLeave регистрирует обработчик выхода игрока
func (b *BusInteractions) OnLeave(h LeaveHandler) (Subscription, error) {
	return b.dispatcher.OnLeave(h)
}

// Interact публикует взаимодействие в шину; подписчики получат его асинхронно
func (b *BusInteractions) Interact(ctx context.Context, in Interaction) {
	if err := PublishInteraction(ctx, b.bus, in); err != nil {
		b.logger.Warn("Не удалось опубликовать взаимодействие игрока %s: %v", in.PlayerID, err)
	}
}

func (b *BusInteractions) handle(ctx context.Context, ev *eventbus.Envelope) {
	switch ev.EventType {
	case eventbus.TypeInteraction:
		var payload eventbus.InteractionEvent
		if err := ev.Decode(&payload); err != nil {
			b.logger.Warn("Некорректное событие %s: %v", ev.ID, err)
			return
		}
		b.dispatcher.Interact(ctx, Interaction{
			PlayerID:   payload.PlayerID,
			PlayerName: payload.PlayerName,
			Position:   payload.Position,
			BrickName:  payload.BrickName,
			Tag:        payload.Tag,
		})
	case eventbus.TypePlayerLeave:
		var payload eventbus.PlayerLeaveEvent
		if err := ev.Decode(&payload); err != nil {
			b.logger.Warn("Некорректное событие %s: %v", ev.ID, err)
			return
		}
		b.dispatcher.Leave(ctx, payload.PlayerID)
	}
}

// PublishInteraction публикует взаимодействие в шину
func PublishInteraction(ctx context.Context, bus eventbus.EventBus, in Interaction) error {
	return eventbus.Emit(ctx, bus, BusSource, eventbus.TypeInteraction, eventbus.InteractionEvent{
		PlayerID:   in.PlayerID,
		PlayerName: in.PlayerName,
		Position:   in.Position,
		BrickName:  in.BrickName,
		Tag:        in.Tag,
	})
}

// PublishLeave публикует выход игрока в шину
func PublishLeave(ctx context.Context, bus eventbus.EventBus, playerID string) error {
	return eventbus.Emit(ctx, bus, BusSource, eventbus.TypePlayerLeave, eventbus.PlayerLeaveEvent{PlayerID: playerID})
}
