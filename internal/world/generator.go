package world

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/annel0/unlimited-mining/internal/util"
	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
)

// TypeSelector выбирает тип вокселя для позиции решётки
type TypeSelector interface {
	Select(pos vec.Vec3) *voxel.Type
}

// SelectorFunc позволяет использовать функцию как TypeSelector
type SelectorFunc func(pos vec.Vec3) *voxel.Type

// Select вызывает функцию
func (f SelectorFunc) Select(pos vec.Vec3) *voxel.Type { return f(pos) }

// Имена политик выбора типа в конфигурации
const (
	SelectorFixed   = "fixed"
	SelectorDepth   = "depth"
	SelectorRandom  = "random"
	SelectorVeins   = "veins"
	SelectorInherit = "inherit"
)

// FixedSelector всегда возвращает один тип
type FixedSelector struct {
	Type *voxel.Type
}

// Select возвращает фиксированный тип
func (s FixedSelector) Select(vec.Vec3) *voxel.Type { return s.Type }

// Layer - слой наполнителя: применяется к позициям с Z < Below
type Layer struct {
	Below int
	Type  *voxel.Type
}

// DefaultLayers - слои по глубине, от глубоких к поверхностным
var DefaultLayers = []Layer{
	{Below: -550, Type: voxel.Basalt},
	{Below: -450, Type: voxel.Bedrock},
	{Below: -350, Type: voxel.Stone},
	{Below: -250, Type: voxel.Shale},
	{Below: -150, Type: voxel.Clay},
	{Below: -50, Type: voxel.PackedDirt},
}

// DepthSelector выбирает наполнитель по глубине Z
type DepthSelector struct {
	Layers  []Layer     // упорядочены по возрастанию Below
	Surface *voxel.Type // выше всех слоёв
}

// NewDepthSelector создаёт селектор со слоями по умолчанию
func NewDepthSelector() DepthSelector {
	return DepthSelector{Layers: DefaultLayers, Surface: voxel.Dirt}
}

// Select возвращает первый слой, под границей которого лежит позиция
func (s DepthSelector) Select(pos vec.Vec3) *voxel.Type {
	for _, layer := range s.Layers {
		if pos.Z < layer.Below {
			return layer.Type
		}
	}
	return s.Surface
}

// RandomSelector равновероятно выбирает тип из списка
type RandomSelector struct {
	mu    sync.Mutex
	rng   *rand.Rand
	types []*voxel.Type
}

// DefaultEntranceTypes - типы вокселей входа
var DefaultEntranceTypes = []*voxel.Type{voxel.Iron, voxel.Dirt, voxel.Stone, voxel.Quartz}

// NewRandomSelector создаёт селектор с детерминированным сидом
func NewRandomSelector(seed int64, types ...*voxel.Type) *RandomSelector {
	if len(types) == 0 {
		types = DefaultEntranceTypes
	}
	return &RandomSelector{rng: rand.New(rand.NewSource(seed)), types: types}
}

// Select возвращает случайный тип
func (s *RandomSelector) Select(vec.Vec3) *voxel.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[s.rng.Intn(len(s.types))]
}

// Vein - рудная жила: появляется ниже MinDepth, где шум выше Threshold
type Vein struct {
	Type      *voxel.Type
	MinDepth  int
	Threshold float64
}

// DefaultVeins - жилы от редких к частым; проверяются по порядку
var DefaultVeins = []Vein{
	{Type: voxel.Sapphire, MinDepth: -500, Threshold: 0.72},
	{Type: voxel.Gold, MinDepth: -400, Threshold: 0.71},
	{Type: voxel.Silver, MinDepth: -300, Threshold: 0.70},
	{Type: voxel.Iron, MinDepth: -200, Threshold: 0.68},
	{Type: voxel.Copper, MinDepth: -100, Threshold: 0.67},
	{Type: voxel.Aluminium, MinDepth: -40, Threshold: 0.66},
	{Type: voxel.Quartz, MinDepth: -10, Threshold: 0.64},
}

// VeinSelector накладывает рудные жилы из 3D-шума Перлина на слои глубины.
// Каждая жила использует собственный шум, чтобы жилы не совпадали.
type VeinSelector struct {
	depth DepthSelector
	veins []Vein
	noise []*util.Noise
}

// NewVeinSelector создаёт селектор жил; scale - масштаб шума в ячейках
func NewVeinSelector(seed int64, scale float64, veins []Vein) *VeinSelector {
	if veins == nil {
		veins = DefaultVeins
	}
	if scale <= 0 {
		scale = 6
	}
	noise := make([]*util.Noise, len(veins))
	for i := range veins {
		noise[i] = util.NewNoise(seed+int64(i)*7919, scale)
	}
	return &VeinSelector{depth: NewDepthSelector(), veins: veins, noise: noise}
}

// Select возвращает руду, если позиция попала в жилу, иначе наполнитель
func (s *VeinSelector) Select(pos vec.Vec3) *voxel.Type {
	for i, vein := range s.veins {
		if pos.Z > vein.MinDepth {
			continue
		}
		if s.noise[i].At3D(float64(pos.X), float64(pos.Y), float64(pos.Z)) >= vein.Threshold {
			return vein.Type
		}
	}
	return s.depth.Select(pos)
}

// NewSelector создаёт политику по имени из конфигурации.
// Для "inherit" возвращается nil: раскрытые воксели наследуют тип.
func NewSelector(name string, seed int64) (TypeSelector, error) {
	switch name {
	case SelectorInherit, "":
		return nil, nil
	case SelectorFixed:
		return FixedSelector{Type: voxel.Dirt}, nil
	case SelectorDepth:
		return NewDepthSelector(), nil
	case SelectorRandom:
		return NewRandomSelector(seed), nil
	case SelectorVeins:
		return NewVeinSelector(seed, 0, nil), nil
	default:
		return nil, fmt.Errorf("unknown type selector %q", name)
	}
}
