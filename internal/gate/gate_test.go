package gate

import (
	"testing"
	"time"

	"github.com/annel0/unlimited-mining/internal/clock"
	"github.com/stretchr/testify/assert"
)

func newTestGate() (*Gate, *clock.Fake) {
	c := clock.NewFake(time.Unix(1000, 0))
	return New(c, 5*time.Second), c
}

// TestGateConfirmWithinWindow: первое нажатие взводит, второе подтверждает
func TestGateConfirmWithinWindow(t *testing.T) {
	g, c := newTestGate()

	assert.False(t, g.TryConfirm("p1"))
	assert.True(t, g.Pending("p1"))

	c.Advance(4 * time.Second)
	assert.True(t, g.TryConfirm("p1"))
	assert.False(t, g.Pending("p1"))

	// Следующее нажатие снова начинает цикл
	assert.False(t, g.TryConfirm("p1"))
}

// TestGateExpiry: после окна ожидание снимается молча
func TestGateExpiry(t *testing.T) {
	g, c := newTestGate()

	assert.False(t, g.TryConfirm("p1"))
	c.Advance(5 * time.Second)
	assert.False(t, g.Pending("p1"))
	assert.False(t, g.TryConfirm("p1"), "после истечения нажатие снова первое")
}

// TestGateRearmRestartsTimer: повторное взведение перезапускает окно
func TestGateRearmRestartsTimer(t *testing.T) {
	g, c := newTestGate()

	g.Arm("p1")
	c.Advance(3 * time.Second)
	g.Arm("p1")
	c.Advance(3 * time.Second)
	assert.True(t, g.Pending("p1"), "старый таймер не должен снимать новую запись")

	c.Advance(2 * time.Second)
	assert.False(t, g.Pending("p1"))
	assert.Equal(t, 0, c.Pending())
}

// TestGateKeysIndependent: ключи не влияют друг на друга
func TestGateKeysIndependent(t *testing.T) {
	g, c := newTestGate()

	assert.False(t, g.TryConfirm("a"))
	c.Advance(2 * time.Second)
	assert.False(t, g.TryConfirm("b"))
	assert.Equal(t, 2, g.Len())

	c.Advance(3 * time.Second)
	assert.False(t, g.Pending("a"))
	assert.True(t, g.Pending("b"))

	assert.True(t, g.Cancel("b"))
	assert.False(t, g.Cancel("b"))
	assert.Equal(t, 0, g.Len())
}

// TestGateDefaults проверяет значения по умолчанию
func TestGateDefaults(t *testing.T) {
	g := New(nil, 0)
	assert.Equal(t, DefaultWindow, g.Window())
	assert.False(t, g.TryConfirm("x"))
	assert.True(t, g.Cancel("x"))
}
