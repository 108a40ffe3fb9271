package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID            string            `json:"id"`                       // UUID события
	Timestamp     time.Time         `json:"timestamp"`                // Время создания (UTC)
	Source        string            `json:"source"`                   // Имя сервиса-источника
	EventType     string            `json:"event_type"`               // Тип события (interaction, voxel_mined…)
	Version       int               `json:"version"`                  // Версия схемы полезной нагрузки
	CorrelationID string            `json:"correlation_id,omitempty"` // Для связывания цепочек
	Priority      int               `json:"priority"`                 // 0=Low … 9=Critical (для backpressure)
	Payload       []byte            `json:"payload"`                  // JSON полезной нагрузки
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope создаёт событие с новым UUID и JSON-полезной нагрузкой
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  5,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку в v
func (ev *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(ev.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.EventType, err)
	}
	return nil
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто, то все типы.
	Sources []string // Если пусто, то все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

// ErrBusClosed возвращается при работе с закрытой шиной
var ErrBusClosed = errors.New("event bus is closed")

// Emit создаёт конверт и публикует его; nil-шина игнорируется
func Emit(ctx context.Context, bus EventBus, source, eventType string, payload interface{}) error {
	if bus == nil {
		return nil
	}
	ev, err := NewEnvelope(source, eventType, payload)
	if err != nil {
		return err
	}
	return bus.Publish(ctx, ev)
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int
	closed      bool

	statsMu sync.Mutex
	stats   Stats

	buffer chan *Envelope
	quit   chan struct{}
	done   chan struct{}
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером.
// Обработчики вызываются на отдельных горутинах.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1024
	}
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.RLock()
	closed := mb.closed
	mb.mu.RUnlock()
	if closed {
		return ErrBusClosed
	}

	select {
	case mb.buffer <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	default:
		// Буфер заполнен, дропаем низкий приоритет (<5)
		if ev.Priority < 5 {
			mb.count(func(s *Stats) { s.Dropped++ })
			return nil
		}
		// Для high-priority ждём освобождения места или отмены контекста
		select {
		case mb.buffer <- ev:
			mb.count(func(s *Stats) { s.Published++ })
			return nil
		case <-mb.quit:
			return ErrBusClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (mb *memoryBus) count(f func(s *Stats)) {
	mb.statsMu.Lock()
	f(&mb.stats)
	mb.statsMu.Unlock()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil, ErrBusClosed
	}

	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.statsMu.Lock()
	s := mb.stats
	mb.statsMu.Unlock()
	s.InFlight = len(mb.buffer)
	return s
}

// Close останавливает рассылку и отменяет контексты подписчиков
func (mb *memoryBus) Close() error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.quit)
	for id, sub := range mb.subscribers {
		sub.cancel()
		delete(mb.subscribers, id)
	}
	mb.mu.Unlock()

	<-mb.done
	return nil
}

// dispatchLoop рассылает события подписчикам.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for {
		select {
		case <-mb.quit:
			return
		case ev := <-mb.buffer:
			mb.dispatch(ev)
		}
	}
}

func (mb *memoryBus) dispatch(ev *Envelope) {
	mb.mu.RLock()
	subs := make([]subscriber, 0, len(mb.subscribers))
	for _, sub := range mb.subscribers {
		subs = append(subs, sub)
	}
	mb.mu.RUnlock()

	for _, sub := range subs {
		if !matchFilter(ev, sub.filter) {
			continue
		}
		go func(s subscriber) {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.handler(s.ctx, ev)
				mb.count(func(st *Stats) { st.Consumed++ })
			}
		}(sub)
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
