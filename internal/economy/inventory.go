package economy

import (
	"fmt"
	"sort"

	"github.com/annel0/unlimited-mining/internal/voxel"
)

// InventoryRecord - форма инвентаря для сохранения: DBName -> количество
type InventoryRecord map[string]int

// InventoryEntry - одна позиция инвентаря
type InventoryEntry struct {
	Type   *voxel.Type
	Amount int
}

// Inventory хранит количество ресурсов по типам.
// Отсутствующий тип означает 0, отрицательные значения невозможны.
type Inventory struct {
	items map[*voxel.Type]int
}

// NewInventory создаёт пустой инвентарь
func NewInventory() *Inventory {
	return &Inventory{items: make(map[*voxel.Type]int)}
}

// InventoryFromRecord восстанавливает инвентарь из сохранённой формы.
// Возвращает также ключи, которых нет в каталоге (они пропускаются).
func InventoryFromRecord(rec InventoryRecord, catalog *voxel.Catalog) (*Inventory, []string) {
	inv := NewInventory()
	var unknown []string
	for dbName, amount := range rec {
		t, ok := catalog.Lookup(dbName)
		if !ok {
			unknown = append(unknown, dbName)
			continue
		}
		if amount > 0 {
			inv.items[t] = amount
		}
	}
	sort.Strings(unknown)
	return inv, unknown
}

// Get возвращает количество ресурса
func (inv *Inventory) Get(t *voxel.Type) int {
	return inv.items[t]
}

// Set устанавливает количество; 0 удаляет запись
func (inv *Inventory) Set(t *voxel.Type, amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: %s = %d", ErrNegativeAmount, t.DBName, amount)
	}
	if amount == 0 {
		delete(inv.items, t)
		return nil
	}
	inv.items[t] = amount
	return nil
}

// Add прибавляет количество и возвращает новое значение
func (inv *Inventory) Add(t *voxel.Type, amount int) (int, error) {
	if amount < 0 {
		return inv.Get(t), fmt.Errorf("%w: add %d %s", ErrNegativeAmount, amount, t.DBName)
	}
	newAmount := inv.Get(t) + amount
	if err := inv.Set(t, newAmount); err != nil {
		return inv.Get(t), err
	}
	return newAmount, nil
}

// Entries возвращает позиции, отсортированные по отображаемому имени
func (inv *Inventory) Entries() []InventoryEntry {
	entries := make([]InventoryEntry, 0, len(inv.items))
	for t, amount := range inv.items {
		entries = append(entries, InventoryEntry{Type: t, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Type.Name < entries[j].Type.Name
	})
	return entries
}

// Total возвращает общее количество единиц
func (inv *Inventory) Total() int {
	total := 0
	for _, amount := range inv.items {
		total += amount
	}
	return total
}

// Clear очищает инвентарь
func (inv *Inventory) Clear() {
	inv.items = make(map[*voxel.Type]int)
}

// IsEmpty проверяет, пуст ли инвентарь
func (inv *Inventory) IsEmpty() bool {
	return len(inv.items) == 0
}

// Value возвращает стоимость инвентаря по таблице цен
func (inv *Inventory) Value(pricing *PricingTable) float64 {
	return pricing.Value(inv)
}

// Record возвращает форму для сохранения
func (inv *Inventory) Record() InventoryRecord {
	rec := make(InventoryRecord, len(inv.items))
	for t, amount := range inv.items {
		if amount > 0 {
			rec[t.DBName] = amount
		}
	}
	return rec
}

// Clone возвращает независимую копию
func (inv *Inventory) Clone() *Inventory {
	out := NewInventory()
	for t, amount := range inv.items {
		out.items[t] = amount
	}
	return out
}
