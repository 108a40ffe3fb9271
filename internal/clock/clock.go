// Package clock абстрагирует время, чтобы таймеры можно было тестировать виртуально.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer - отменяемый отложенный вызов
type Timer interface {
	// Stop отменяет вызов; возвращает false, если он уже сработал или отменён
	Stop() bool
}

// Clock - источник времени и таймеров
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real - системные часы
type Real struct{}

// Now возвращает текущее время
func (Real) Now() time.Time { return time.Now() }

// AfterFunc запускает f через d на отдельной горутине
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake - виртуальные часы; таймеры срабатывают только в Advance
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *Fake
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

// NewFake создаёт виртуальные часы, начиная с start
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now возвращает виртуальное время
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc регистрирует вызов f через d виртуального времени
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance сдвигает время на d и синхронно вызывает все наступившие таймеры
// в порядке их срока.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.stopped = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.removeLocked(next)
		c.mu.Unlock()

		next.fn()
	}
}

// Pending возвращает число активных таймеров
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Fake) nextDueLocked(target time.Time) *fakeTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	return c.timers[0]
}

func (c *Fake) removeLocked(t *fakeTimer) {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	t.clock.removeLocked(t)
	return true
}
