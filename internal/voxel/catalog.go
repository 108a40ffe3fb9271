package voxel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateType возвращается при повторной регистрации ключа
var ErrDuplicateType = errors.New("voxel type already registered")

// Встроенные типы вокселей
var (
	Border = &Type{Name: "Border", DBName: "border", Color: Color{0, 0, 0}, HP: -1}

	// Наполнители
	Dirt       = &Type{Name: "Dirt", DBName: "dirt", Color: Color{90, 79, 45}, HP: 3}
	PackedDirt = &Type{Name: "Packed Dirt", DBName: "packed_dirt", Color: Color{51, 45, 26}, HP: 5}
	Clay       = &Type{Name: "Clay", DBName: "clay", Color: Color{213, 163, 114}, HP: 10}
	Shale      = &Type{Name: "Shale", DBName: "shale", Color: Color{89, 106, 130}, HP: 20}
	Stone      = &Type{Name: "Stone", DBName: "stone", Color: Color{145, 142, 133}, HP: 35}
	Bedrock    = &Type{Name: "Bedrock", DBName: "bedrock", Color: Color{120, 115, 110}, HP: 50}
	Basalt     = &Type{Name: "Basalt", DBName: "basalt", Color: Color{76, 74, 74}, HP: 100}

	// Руды
	Quartz    = &Type{Name: "Quartz", DBName: "quartz", Color: Color{233, 223, 224}, HP: 10}
	Aluminium = &Type{Name: "Aluminium", DBName: "aluminium", Color: Color{136, 139, 141}, HP: 15}
	Copper    = &Type{Name: "Copper", DBName: "copper", Color: Color{184, 115, 51}, HP: 25}
	Iron      = &Type{Name: "Iron", DBName: "iron", Color: Color{165, 156, 148}, Material: MaterialMetallic, HP: 30}
	Silver    = &Type{Name: "Silver", DBName: "silver", Color: Color{211, 211, 211}, HP: 50}
	Gold      = &Type{Name: "Gold", DBName: "gold", Color: Color{255, 215, 0}, HP: 100}
	Sapphire  = &Type{Name: "Sapphire", DBName: "sapphire", Color: Color{15, 82, 186}, HP: 200}
)

// Catalog - реестр типов вокселей по ключу DBName
type Catalog struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewCatalog создаёт пустой каталог
func NewCatalog() *Catalog {
	return &Catalog{types: make(map[string]*Type)}
}

// DefaultCatalog создаёт каталог со всеми встроенными типами
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, t := range []*Type{
		Border,
		Dirt, PackedDirt, Clay, Shale, Stone, Bedrock, Basalt,
		Quartz, Aluminium, Copper, Iron, Silver, Gold, Sapphire,
	} {
		c.MustRegister(t)
	}
	return c
}

// Register добавляет тип в каталог
func (c *Catalog) Register(t *Type) error {
	if t == nil || t.DBName == "" {
		return fmt.Errorf("voxel type must have a db name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.types[t.DBName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.DBName)
	}
	c.types[t.DBName] = t
	return nil
}

// MustRegister регистрирует тип и паникует при ошибке (для инициализации)
func (c *Catalog) MustRegister(t *Type) {
	if err := c.Register(t); err != nil {
		panic(err)
	}
}

// Lookup возвращает тип по ключу сохранения
func (c *Catalog) Lookup(dbName string) (*Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[dbName]
	return t, ok
}

// MustLookup возвращает тип по ключу или паникует
func (c *Catalog) MustLookup(dbName string) *Type {
	t, ok := c.Lookup(dbName)
	if !ok {
		panic(fmt.Sprintf("unknown voxel type %q", dbName))
	}
	return t
}

// All возвращает все типы, отсортированные по отображаемому имени
func (c *Catalog) All() []*Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Type, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len возвращает число зарегистрированных типов
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}
