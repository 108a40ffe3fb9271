package voxel

import (
	"testing"

	"github.com/annel0/unlimited-mining/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceTables(t *testing.T) {
	for _, f := range AllFaces {
		// Противоположная грань противоположной грани - исходная грань
		assert.Equal(t, f, f.Invert().Invert(), "грань %s", f)
		assert.NotEqual(t, f, f.Invert())

		// Смещения противоположных граней взаимно обратны
		assert.Equal(t, vec.Vec3{}, f.Offset().Add(f.Invert().Offset()), "грань %s", f)
		assert.Equal(t, 1, abs(f.Offset().X)+abs(f.Offset().Y)+abs(f.Offset().Z), "смещение должно быть единичным")
	}

	assert.Equal(t, vec.New(0, 0, -1), NegZ.Offset())
	assert.Equal(t, vec.New(3, 4, 5), PosX.Neighbor(vec.New(2, 4, 5)))
}

func TestFaceSet(t *testing.T) {
	s := NewFaceSet(NegZ, PosX)
	assert.True(t, s.Has(NegZ))
	assert.True(t, s.Has(PosX))
	assert.False(t, s.Has(PosZ))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Face{PosX, NegZ}, s.Faces())
	assert.Equal(t, "{+X -Z}", s.String())

	s = s.Remove(PosX).Remove(PosX)
	assert.Equal(t, []Face{NegZ}, s.Faces())
	assert.False(t, s.IsEmpty())
	assert.True(t, s.Remove(NegZ).IsEmpty())
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 15, c.Len())

	iron, ok := c.Lookup("iron")
	require.True(t, ok)
	assert.Same(t, Iron, iron)
	assert.Equal(t, MaterialMetallic, iron.EffectiveMaterial())
	assert.Equal(t, MaterialPlastic, Dirt.EffectiveMaterial())

	_, ok = c.Lookup("mithril")
	assert.False(t, ok)

	err := c.Register(&Type{Name: "Fake Dirt", DBName: "dirt"})
	assert.ErrorIs(t, err, ErrDuplicateType)
	assert.Error(t, c.Register(&Type{Name: "Nameless"}))

	all := c.All()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name, "типы должны быть отсортированы по имени")
	}
}

func TestColorHexAndMaterialIndex(t *testing.T) {
	assert.Equal(t, "ffd700", Gold.Color.Hex())
	assert.Equal(t, "000000", Border.Color.Hex())
	assert.Equal(t, 3, MaterialIndex(MaterialMetallic))
	assert.Equal(t, 0, MaterialIndex(""))
}

func TestVoxelDamage(t *testing.T) {
	v := New(Dirt, NewFaceSet(NegZ))
	assert.Equal(t, 3, v.HP)
	assert.False(t, v.Damage(2))
	assert.Equal(t, 1, v.HP)
	assert.True(t, v.Damage(2))
	assert.Equal(t, -1, v.HP)

	border := New(Border, 0)
	assert.False(t, border.Breakable())
	assert.False(t, border.Damage(100))
	assert.Equal(t, -1, border.HP, "прочность неразрушимого вокселя не меняется")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
