package economy

import (
	"testing"

	"github.com/annel0/unlimited-mining/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInventoryAdd проверяет накопление и стоимость ресурсов
func TestInventoryAdd(t *testing.T) {
	inv := NewInventory()
	pricing := DefaultPricing()

	n, err := inv.Add(voxel.Stone, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = inv.Add(voxel.Stone, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, 5, inv.Get(voxel.Stone))
	assert.Equal(t, 5*pricing.Price(voxel.Stone), inv.Value(pricing))
	assert.Equal(t, 0, inv.Get(voxel.Gold), "отсутствующий тип должен давать 0")
}

// TestInventoryNeverNegative проверяет, что количество не уходит в минус
func TestInventoryNeverNegative(t *testing.T) {
	inv := NewInventory()
	_, _ = inv.Add(voxel.Dirt, 2)

	_, err := inv.Add(voxel.Dirt, -1)
	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.Equal(t, 2, inv.Get(voxel.Dirt))

	assert.ErrorIs(t, inv.Set(voxel.Dirt, -5), ErrNegativeAmount)
	assert.Equal(t, 2, inv.Get(voxel.Dirt))

	require.NoError(t, inv.Set(voxel.Dirt, 0))
	assert.True(t, inv.IsEmpty(), "Set(0) должен удалять запись")
}

// TestInventoryRecord проверяет форму сохранения и пропуск неизвестных ключей
func TestInventoryRecord(t *testing.T) {
	inv := NewInventory()
	_, _ = inv.Add(voxel.Iron, 4)
	_, _ = inv.Add(voxel.Clay, 1)

	rec := inv.Record()
	assert.Equal(t, InventoryRecord{"iron": 4, "clay": 1}, rec)

	rec["mithril"] = 9
	rec["dirt"] = 0
	loaded, unknown := InventoryFromRecord(rec, voxel.DefaultCatalog())
	assert.Equal(t, []string{"mithril"}, unknown)
	assert.Equal(t, 4, loaded.Get(voxel.Iron))
	assert.Equal(t, 1, loaded.Get(voxel.Clay))
	assert.Equal(t, 5, loaded.Total())
	assert.Len(t, loaded.Entries(), 2)
}

// TestInventoryEntriesSorted проверяет порядок позиций
func TestInventoryEntriesSorted(t *testing.T) {
	inv := NewInventory()
	_, _ = inv.Add(voxel.Stone, 1)
	_, _ = inv.Add(voxel.Clay, 1)
	_, _ = inv.Add(voxel.Gold, 1)

	entries := inv.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "Clay", entries[0].Type.Name)
	assert.Equal(t, "Gold", entries[1].Type.Name)
	assert.Equal(t, "Stone", entries[2].Type.Name)
}

// TestPickaxeCost проверяет стоимость и монотонность улучшений
func TestPickaxeCost(t *testing.T) {
	p := NewPickaxe(0)
	assert.Equal(t, 1, p.Level(), "нулевой уровень нормализуется в 1")
	assert.Equal(t, 1000.0, p.UpgradeCost())

	prev := p.UpgradeCost()
	for i := 0; i < 20; i++ {
		level := p.Upgrade()
		assert.Equal(t, i+2, level)
		assert.Equal(t, level, p.Power())
		assert.Greater(t, p.UpgradeCost(), prev)
		prev = p.UpgradeCost()
	}

	p.Reset()
	assert.Equal(t, 1, p.Level())
}

// TestPricingDefaults проверяет таблицу цен
func TestPricingDefaults(t *testing.T) {
	pricing := DefaultPricing()
	assert.Equal(t, 1.0, pricing.Price(voxel.Dirt))
	assert.Equal(t, 20.0, pricing.Price(voxel.Quartz))
	assert.Equal(t, 0.0, pricing.Price(voxel.Border), "граница не продаётся")
	assert.Equal(t, 0.0, pricing.Price(&voxel.Type{DBName: "unknown"}))
	assert.Equal(t, 0.0, (*PricingTable)(nil).Price(voxel.Dirt))
}

// TestPlayerSellAndUpgrade проверяет продажу и улучшение кирки
func TestPlayerSellAndUpgrade(t *testing.T) {
	pricing := DefaultPricing()
	p := NewPlayer("p1")

	res := p.TryUpgradePickaxe()
	assert.False(t, res.Upgraded)
	assert.Equal(t, 1000.0, res.Cost)
	assert.Equal(t, 1000.0, res.Shortfall)
	assert.Equal(t, 1, p.PickaxeLevel())

	_, err := p.AddResource(voxel.Gold, 5)
	require.NoError(t, err)
	assert.True(t, p.HasResources())
	assert.Equal(t, 1250.0, p.InventoryValue(pricing))

	sold := p.SellAll(pricing)
	assert.Equal(t, 1250.0, sold)
	assert.Equal(t, 1250.0, p.Money())
	assert.False(t, p.HasResources())

	res = p.TryUpgradePickaxe()
	assert.True(t, res.Upgraded)
	assert.Equal(t, 2, res.Level)
	assert.Equal(t, 250.0, p.Money())
	assert.Equal(t, 1500.0, p.UpgradeCost())
	assert.Equal(t, 5, p.TotalMined())
}

// TestRecordJSON проверяет формат записи игрока
func TestRecordJSON(t *testing.T) {
	data, err := MarshalRecord(Record{Money: 12.5, PickLevel: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"money":12.5,"pickLevel":3,"resources":{}}`, string(data))

	rec, err := UnmarshalRecord([]byte(`{"money":7,"pickLevel":2,"resources":{"dirt":4}}`))
	require.NoError(t, err)
	assert.Equal(t, 7.0, rec.Money)
	assert.Equal(t, 2, rec.PickLevel)
	assert.Equal(t, 4, rec.Resources["dirt"])

	_, err = UnmarshalRecord([]byte("{"))
	assert.Error(t, err)
	assert.Equal(t, "um_player_42", RecordKey("42"))
}
