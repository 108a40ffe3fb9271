// Package gate реализует подтверждение действия повторным нажатием в пределах окна.
package gate

import (
	"sync"
	"time"

	"github.com/annel0/unlimited-mining/internal/clock"
)

// DefaultWindow - окно подтверждения по умолчанию
const DefaultWindow = 5 * time.Second

type entry struct {
	token uint64
	timer clock.Timer
}

// Gate хранит ожидающие подтверждения по ключу.
// Каждая запись несёт токен поколения: таймер удаляет запись, только если
// токен совпадает, поэтому из «подтверждено» и «истекло» срабатывает ровно одно.
type Gate struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	entries map[string]*entry
	nextGen uint64
}

// New создаёт шлюз с окном window; нулевое окно заменяется DefaultWindow
func New(c clock.Clock, window time.Duration) *Gate {
	if c == nil {
		c = clock.Real{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{
		clock:   c,
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Window возвращает окно подтверждения
func (g *Gate) Window() time.Duration {
	return g.window
}

// TryConfirm возвращает true, если для ключа было ожидающее подтверждение
// (оно поглощается). Иначе взводит новое и возвращает false.
func (g *Gate) TryConfirm(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key]; ok {
		e.timer.Stop()
		delete(g.entries, key)
		return true
	}
	g.armLocked(key)
	return false
}

// Arm взводит ожидание для ключа; если оно уже есть, таймер перезапускается
func (g *Gate) Arm(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key]; ok {
		e.timer.Stop()
	}
	g.armLocked(key)
}

// Pending проверяет наличие ожидающего подтверждения
func (g *Gate) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[key]
	return ok
}

// Cancel снимает ожидание; возвращает true, если оно было
func (g *Gate) Cancel(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(g.entries, key)
	return true
}

// Len возвращает число ожидающих подтверждений
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Gate) armLocked(key string) {
	g.nextGen++
	token := g.nextGen
	e := &entry{token: token}
	e.timer = g.clock.AfterFunc(g.window, func() { g.expire(key, token) })
	g.entries[key] = e
}

func (g *Gate) expire(key string, token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key]; ok && e.token == token {
		delete(g.entries, key)
	}
}
