package world

import (
	"fmt"

	"github.com/annel0/unlimited-mining/internal/vec"
)

// Mapping переводит координаты решётки в мировые и обратно:
// world = local*CellSize + Anchor
type Mapping struct {
	Anchor   vec.Vec3
	CellSize vec.Vec3
}

// NewMapping проверяет размер ячейки и создаёт отображение
func NewMapping(anchor, cellSize vec.Vec3) (Mapping, error) {
	if cellSize.X <= 0 || cellSize.Y <= 0 || cellSize.Z <= 0 {
		return Mapping{}, fmt.Errorf("%w: %s", ErrInvalidMapping, cellSize)
	}
	return Mapping{Anchor: anchor, CellSize: cellSize}, nil
}

// ToWorld переводит позицию решётки в мировую
func (m Mapping) ToWorld(local vec.Vec3) vec.Vec3 {
	return local.Mul(m.CellSize).Add(m.Anchor)
}

// ToLocal переводит мировую позицию в решётку.
// ok=false, если позиция не лежит на узле решётки.
func (m Mapping) ToLocal(world vec.Vec3) (vec.Vec3, bool) {
	return world.Sub(m.Anchor).DivExact(m.CellSize)
}

// BrickExtent возвращает половину размера ячейки (размер кирпича на хосте)
func (m Mapping) BrickExtent() vec.Vec3 {
	return vec.Vec3{X: m.CellSize.X / 2, Y: m.CellSize.Y / 2, Z: m.CellSize.Z / 2}
}
