package world

import (
	"testing"

	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/annel0/unlimited-mining/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthSelector(t *testing.T) {
	s := NewDepthSelector()
	cases := map[int]*voxel.Type{
		0:    voxel.Dirt,
		-50:  voxel.Dirt,
		-51:  voxel.PackedDirt,
		-151: voxel.Clay,
		-251: voxel.Shale,
		-351: voxel.Stone,
		-451: voxel.Bedrock,
		-551: voxel.Basalt,
	}
	for z, want := range cases {
		assert.Equal(t, want, s.Select(vec.New(0, 0, z)), "z=%d", z)
	}
}

func TestRandomSelectorDeterministic(t *testing.T) {
	a := NewRandomSelector(7)
	b := NewRandomSelector(7)
	seen := make(map[*voxel.Type]bool)
	for i := 0; i < 200; i++ {
		ta := a.Select(vec.Vec3{})
		assert.Equal(t, ta, b.Select(vec.Vec3{}))
		seen[ta] = true
	}
	assert.Len(t, seen, len(DefaultEntranceTypes))
}

func TestVeinSelector(t *testing.T) {
	s := NewVeinSelector(42, 4, []Vein{{Type: voxel.Gold, MinDepth: -10, Threshold: 0.5}})
	depth := NewDepthSelector()

	// Выше всех жил только наполнитель
	for x := 0; x < 20; x++ {
		p := vec.New(x, 0, 0)
		assert.Equal(t, depth.Select(p), s.Select(p))
	}

	// Глубоко встречаются руды
	ores := 0
	for x := 0; x < 30; x++ {
		for y := 0; y < 30; y++ {
			p := vec.New(x, y, -600)
			if s.Select(p) != depth.Select(p) {
				ores++
			}
		}
	}
	assert.Greater(t, ores, 0)
	assert.Less(t, ores, 900)

	assert.Len(t, NewVeinSelector(1, 0, nil).veins, len(DefaultVeins))
}

func TestNewSelector(t *testing.T) {
	for _, name := range []string{SelectorFixed, SelectorDepth, SelectorRandom, SelectorVeins} {
		s, err := NewSelector(name, 1)
		require.NoError(t, err, name)
		assert.NotNil(t, s, name)
	}
	s, err := NewSelector(SelectorInherit, 1)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewSelector("lava", 1)
	assert.Error(t, err)
}

func TestSelectorFunc(t *testing.T) {
	var s TypeSelector = SelectorFunc(func(pos vec.Vec3) *voxel.Type {
		if pos.Z < 0 {
			return voxel.Stone
		}
		return voxel.Dirt
	})
	assert.Equal(t, voxel.Dirt, s.Select(vec.New(0, 0, 0)))
	assert.Equal(t, voxel.Stone, s.Select(vec.New(0, 0, -1)), "функция должна получать позицию")
}
