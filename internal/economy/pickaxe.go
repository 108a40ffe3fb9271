package economy

// Стоимость улучшения за уровень
const upgradeCostPerLevel = 500

// Pickaxe - кирка игрока. Проверка средств выполняется снаружи.
type Pickaxe struct {
	level int
}

// NewPickaxe создаёт кирку указанного уровня (минимум 1)
func NewPickaxe(level int) Pickaxe {
	if level < 1 {
		level = 1
	}
	return Pickaxe{level: level}
}

// Level возвращает текущий уровень
func (p *Pickaxe) Level() int {
	if p.level < 1 {
		return 1
	}
	return p.level
}

// Power возвращает силу удара, равную уровню
func (p *Pickaxe) Power() int {
	return p.Level()
}

// Upgrade повышает уровень на 1 и возвращает новый уровень
func (p *Pickaxe) Upgrade() int {
	p.level = p.Level() + 1
	return p.level
}

// UpgradeCost возвращает стоимость следующего улучшения
func (p *Pickaxe) UpgradeCost() float64 {
	return float64((p.Level() + 1) * upgradeCostPerLevel)
}

// Reset сбрасывает кирку на первый уровень
func (p *Pickaxe) Reset() {
	p.level = 1
}
