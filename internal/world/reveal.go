package world

import (
	"context"

	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
)

// Footprint - прямоугольник входа [0,Width)×[0,Length) на уровне потолка
type Footprint struct {
	Width  int
	Length int
}

// Contains проверяет, лежит ли позиция над входом по X и Y
func (f Footprint) Contains(p vec.Vec3) bool {
	return p.X >= 0 && p.X < f.Width && p.Y >= 0 && p.Y < f.Length
}

// RevealEngine создаёт соседей разрушенного вокселя за его скрытыми гранями
type RevealEngine struct {
	store     *Store
	ceiling   int
	footprint Footprint
	selector  TypeSelector // nil - новый воксель наследует тип разрушенного
}

// NewRevealEngine создаёт движок раскрытия
func NewRevealEngine(store *Store, ceiling int, footprint Footprint, selector TypeSelector) *RevealEngine {
	return &RevealEngine{
		store:     store,
		ceiling:   ceiling,
		footprint: footprint,
		selector:  selector,
	}
}

type faceClear struct {
	pos  vec.Vec3
	face voxel.Face
}

// Reveal раскрывает соседей вокселя destroyed в позиции pos и удаляет его.
// Все новые воксели создаются одной записью; снятие граней у соседей
// применяется только после её успеха, поэтому неудача оставляет решётку без изменений.
func (r *RevealEngine) Reveal(ctx context.Context, pos vec.Vec3, destroyed voxel.Voxel) (int, error) {
	var (
		batch   []Blueprint
		borders []Blueprint
		clears  []faceClear
		planned = make(map[vec.Vec3]bool)
	)

	for _, f := range destroyed.Obscured.Faces() {
		n := f.Neighbor(pos)
		if r.store.Has(n) {
			clears = append(clears, faceClear{pos: n, face: f.Invert()})
			continue
		}
		if planned[n] {
			continue
		}

		from := f.Invert()
		var obscured voxel.FaceSet
		for _, g := range voxel.AllFaces {
			if g == from || (g == voxel.PosZ && n.Z >= r.ceiling) {
				continue
			}
			m := g.Neighbor(n)
			if r.store.Has(m) {
				clears = append(clears, faceClear{pos: m, face: g.Invert()})
			} else {
				obscured = obscured.Add(g)
			}
		}

		batch = append(batch, Blueprint{Position: n, Type: r.typeAt(n, destroyed.Type), Obscured: obscured})
		planned[n] = true

		// Граница над потолком вне входа
		if n.Z >= r.ceiling && !r.footprint.Contains(n) {
			b := voxel.PosZ.Neighbor(n)
			if !r.store.Has(b) && !planned[b] {
				borders = append(borders, Blueprint{Position: b, Type: voxel.Border})
				planned[b] = true
			}
		}
	}

	batch = append(batch, borders...)
	if err := r.store.CreateMany(ctx, batch); err != nil {
		return 0, err
	}

	for _, c := range clears {
		r.store.ClearFace(c.pos, c.face)
	}

	// Удаляем после размещения, чтобы игрок не провалился сквозь мир
	if err := r.store.Delete(ctx, pos); err != nil {
		return len(batch), err
	}
	return len(batch), nil
}

func (r *RevealEngine) typeAt(pos vec.Vec3, inherited *voxel.Type) *voxel.Type {
	if r.selector == nil {
		return inherited
	}
	if t := r.selector.Select(pos); t != nil {
		return t
	}
	return inherited
}
