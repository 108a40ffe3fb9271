package host

import (
	"context"
	"sync"
)

// Dispatcher синхронно раздаёт взаимодействия и выходы подписчикам.
// Реализует Interactions и Departures.
type Dispatcher struct {
	mu          sync.RWMutex
	nextID      int
	interactors map[int]InteractionHandler
	leavers     map[int]LeaveHandler
}

// NewDispatcher создаёт пустой диспетчер
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		interactors: make(map[int]InteractionHandler),
		leavers:     make(map[int]LeaveHandler),
	}
}

// OnInteraction регистрирует обработчик взаимодействий
func (d *Dispatcher) OnInteraction(h InteractionHandler) (Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.interactors[id] = h
	return &dispatcherSub{release: func() { d.remove(id) }}, nil
}

// OnLeave регистрирует обработчик выхода игрока
func (d *Dispatcher) OnLeave(h LeaveHandler) (Subscription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.leavers[id] = h
	return &dispatcherSub{release: func() { d.remove(id) }}, nil
}

// Interact вызывает все обработчики взаимодействий в текущей горутине
func (d *Dispatcher) Interact(ctx context.Context, in Interaction) {
	d.mu.RLock()
	handlers := make([]InteractionHandler, 0, len(d.interactors))
	for _, h := range d.interactors {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, in)
	}
}

// Leave вызывает все обработчики выхода
func (d *Dispatcher) Leave(ctx context.Context, playerID string) {
	d.mu.RLock()
	handlers := make([]LeaveHandler, 0, len(d.leavers))
	for _, h := range d.leavers {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, playerID)
	}
}

// Subscribers возвращает число активных подписок
func (d *Dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.interactors) + len(d.leavers)
}

func (d *Dispatcher) remove(id int) {
	d.mu.Lock()
	delete(d.interactors, id)
	delete(d.leavers, id)
	d.mu.Unlock()
}

type dispatcherSub struct {
	once    sync.Once
	release func()
}

func (s *dispatcherSub) Unsubscribe() {
	s.once.Do(s.release)
}
