package economy

import "github.com/annel0/unlimited-mining/internal/voxel"

// PricingTable сопоставляет типу вокселя цену продажи за единицу
type PricingTable struct {
	prices map[string]float64 // DBName -> цена
}

// NewPricingTable создаёт пустую таблицу цен
func NewPricingTable() *PricingTable {
	return &PricingTable{prices: make(map[string]float64)}
}

// DefaultPricing возвращает таблицу цен для встроенных типов
func DefaultPricing() *PricingTable {
	p := NewPricingTable()

	// Наполнители
	p.Set(voxel.Dirt, 1)
	p.Set(voxel.PackedDirt, 2)
	p.Set(voxel.Clay, 3)
	p.Set(voxel.Shale, 4)
	p.Set(voxel.Stone, 5)
	p.Set(voxel.Bedrock, 6)
	p.Set(voxel.Basalt, 7)

	// Руды
	p.Set(voxel.Quartz, 20)
	p.Set(voxel.Aluminium, 25)
	p.Set(voxel.Copper, 40)
	p.Set(voxel.Iron, 60)
	p.Set(voxel.Silver, 100)
	p.Set(voxel.Gold, 250)
	p.Set(voxel.Sapphire, 600)
	return p
}

// Set задаёт цену для типа
func (p *PricingTable) Set(t *voxel.Type, price float64) {
	p.prices[t.DBName] = price
}

// Price возвращает цену за единицу; неизвестные типы стоят 0
func (p *PricingTable) Price(t *voxel.Type) float64 {
	if p == nil || t == nil {
		return 0
	}
	return p.prices[t.DBName]
}

// Value возвращает суммарную стоимость инвентаря
func (p *PricingTable) Value(inv *Inventory) float64 {
	total := 0.0
	for _, e := range inv.Entries() {
		total += p.Price(e.Type) * float64(e.Amount)
	}
	return total
}
