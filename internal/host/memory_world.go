package host

import (
	"context"
	"errors"
	"sync"

	"github.com/annel0/unlimited-mining/internal/vec"
)

// ErrInjected - ошибка, подставляемая MemoryWorld по запросу теста
var ErrInjected = errors.New("injected host failure")

// MemoryWorld хранит кирпичи в памяти процесса, сгруппированные по владельцу
type MemoryWorld struct {
	mu     sync.Mutex
	bricks map[string]map[vec.Vec3]Brick

	writes int
	clears int

	failPlace int // сколько следующих PlaceBricks завершить ошибкой
	failClear int
}

// NewMemoryWorld создаёт пустой мир
func NewMemoryWorld() *MemoryWorld {
	return &MemoryWorld{bricks: make(map[string]map[vec.Vec3]Brick)}
}

// PlaceBricks размещает кирпичи под владельцем; кирпич на занятой позиции заменяется
func (w *MemoryWorld) PlaceBricks(ctx context.Context, owner string, bricks []Brick) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failPlace > 0 {
		w.failPlace--
		return ErrInjected
	}

	owned, ok := w.bricks[owner]
	if !ok {
		owned = make(map[vec.Vec3]Brick)
		w.bricks[owner] = owned
	}
	for _, b := range bricks {
		owned[b.Position] = b
	}
	w.writes++
	return nil
}

// ClearRegion удаляет кирпичи всех владельцев внутри box center±extent
func (w *MemoryWorld) ClearRegion(ctx context.Context, center, extent vec.Vec3) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failClear > 0 {
		w.failClear--
		return ErrInjected
	}

	for _, owned := range w.bricks {
		for pos := range owned {
			if inBox(pos, center, extent) {
				delete(owned, pos)
			}
		}
	}
	w.clears++
	return nil
}

// ClearOwner удаляет все кирпичи владельца
func (w *MemoryWorld) ClearOwner(ctx context.Context, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failClear > 0 {
		w.failClear--
		return ErrInjected
	}
	delete(w.bricks, owner)
	w.clears++
	return nil
}

// FailNextPlace заставляет n следующих PlaceBricks вернуть ErrInjected
func (w *MemoryWorld) FailNextPlace(n int) {
	w.mu.Lock()
	w.failPlace = n
	w.mu.Unlock()
}

// FailNextClear заставляет n следующих очисток вернуть ErrInjected
func (w *MemoryWorld) FailNextClear(n int) {
	w.mu.Lock()
	w.failClear = n
	w.mu.Unlock()
}

// Writes возвращает число успешных PlaceBricks
func (w *MemoryWorld) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

// Clears возвращает число успешных очисток
func (w *MemoryWorld) Clears() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clears
}

// Count возвращает число кирпичей владельца
func (w *MemoryWorld) Count(owner string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.bricks[owner])
}

// BrickAt ищет кирпич по мировой позиции среди всех владельцев
func (w *MemoryWorld) BrickAt(pos vec.Vec3) (Brick, string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for owner, owned := range w.bricks {
		if b, ok := owned[pos]; ok {
			return b, owner, true
		}
	}
	return Brick{}, "", false
}

func inBox(pos, center, extent vec.Vec3) bool {
	d := pos.Sub(center)
	return abs(d.X) <= extent.X && abs(d.Y) <= extent.Y && abs(d.Z) <= extent.Z
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
