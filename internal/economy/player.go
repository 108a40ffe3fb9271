package economy

import (
	"sync"

	"github.com/annel0/unlimited-mining/internal/voxel"
)

// UpgradeResult - итог попытки улучшить кирку.
// Нехватка средств не является ошибкой: Upgraded=false и Shortfall > 0.
type UpgradeResult struct {
	Upgraded  bool    `json:"upgraded"`
	Level     int     `json:"level"`
	Cost      float64 `json:"cost"`
	Shortfall float64 `json:"shortfall"`
}

// Stats - снимок состояния игрока для команд и REST
type Stats struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Money          float64        `json:"money"`
	PickaxeLevel   int            `json:"pickaxe_level"`
	UpgradeCost    float64        `json:"upgrade_cost"`
	TotalMined     int            `json:"total_mined"`
	InventoryValue float64        `json:"inventory_value"`
	Resources      map[string]int `json:"resources"`
}

// Player хранит экономическое состояние одного игрока.
// Все методы безопасны для конкурентного вызова.
type Player struct {
	mu         sync.Mutex
	id         string
	name       string
	money      float64
	pickaxe    Pickaxe
	inventory  *Inventory
	totalMined int
}

// NewPlayer создаёт игрока с начальным состоянием
func NewPlayer(id string) *Player {
	return &Player{
		id:        id,
		name:      id,
		pickaxe:   NewPickaxe(1),
		inventory: NewInventory(),
	}
}

// ID возвращает идентификатор игрока
func (p *Player) ID() string { return p.id }

// Name возвращает кэшированное отображаемое имя
func (p *Player) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// SetName обновляет кэшированное имя
func (p *Player) SetName(name string) {
	if name == "" {
		return
	}
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
}

// Money возвращает баланс
func (p *Player) Money() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.money
}

// PickaxeLevel возвращает уровень кирки
func (p *Player) PickaxeLevel() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pickaxe.Level()
}

// PickaxePower возвращает силу удара
func (p *Player) PickaxePower() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pickaxe.Power()
}

// UpgradeCost возвращает стоимость следующего улучшения кирки
func (p *Player) UpgradeCost() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pickaxe.UpgradeCost()
}

// TotalMined возвращает число добытых вокселей за всё время
func (p *Player) TotalMined() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalMined
}

// AddResource добавляет n единиц ресурса и возвращает новое количество
func (p *Player) AddResource(t *voxel.Type, n int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amount, err := p.inventory.Add(t, n)
	if err != nil {
		return amount, err
	}
	p.totalMined += n
	return amount, nil
}

// Resource возвращает количество ресурса
func (p *Player) Resource(t *voxel.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inventory.Get(t)
}

// Inventory возвращает копию инвентаря
func (p *Player) Inventory() *Inventory {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inventory.Clone()
}

// HasResources проверяет наличие хотя бы одного ресурса
func (p *Player) HasResources() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inventory.IsEmpty()
}

// InventoryValue возвращает стоимость инвентаря
func (p *Player) InventoryValue(pricing *PricingTable) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return pricing.Value(p.inventory)
}

// SellAll продаёт весь инвентарь, зачисляет выручку и возвращает её
func (p *Player) SellAll(pricing *PricingTable) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	value := pricing.Value(p.inventory)
	p.money += value
	p.inventory.Clear()
	return value
}

// TryUpgradePickaxe списывает стоимость и повышает уровень, если хватает денег
func (p *Player) TryUpgradePickaxe() UpgradeResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	cost := p.pickaxe.UpgradeCost()
	if cost > p.money {
		return UpgradeResult{
			Level:     p.pickaxe.Level(),
			Cost:      cost,
			Shortfall: cost - p.money,
		}
	}

	p.money -= cost
	return UpgradeResult{
		Upgraded: true,
		Level:    p.pickaxe.Upgrade(),
		Cost:     cost,
	}
}

// Stats возвращает снимок состояния
func (p *Player) Stats(pricing *PricingTable) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		ID:             p.id,
		Name:           p.name,
		Money:          p.money,
		PickaxeLevel:   p.pickaxe.Level(),
		UpgradeCost:    p.pickaxe.UpgradeCost(),
		TotalMined:     p.totalMined,
		InventoryValue: pricing.Value(p.inventory),
		Resources:      p.inventory.Record(),
	}
}

// Record возвращает форму для сохранения
func (p *Player) Record() Record {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Record{
		Money:      p.money,
		PickLevel:  p.pickaxe.Level(),
		Resources:  p.inventory.Record(),
		TotalMined: p.totalMined,
	}
}

// applyRecord загружает сохранённое состояние и возвращает неизвестные ключи ресурсов
func (p *Player) applyRecord(rec Record, catalog *voxel.Catalog) []string {
	inv, unknown := InventoryFromRecord(rec.Resources, catalog)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.money = rec.Money
	if p.money < 0 {
		p.money = 0
	}
	p.pickaxe = NewPickaxe(rec.PickLevel)
	p.inventory = inv
	p.totalMined = rec.TotalMined
	return unknown
}
