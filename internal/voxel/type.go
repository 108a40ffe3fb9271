package voxel

import "fmt"

// Material - материал кирпича на стороне хоста
type Material string

// Материалы, поддерживаемые хостом. Пустое значение означает пластик.
const (
	MaterialPlastic  Material = "BMC_Plastic"
	MaterialGlass    Material = "BMC_Glass"
	MaterialGlow     Material = "BMC_Glow"
	MaterialMetallic Material = "BMC_Metallic"
	MaterialHologram Material = "BMC_Hologram"
)

// Materials перечисляет материалы в порядке палитры хоста
var Materials = []Material{
	MaterialPlastic,
	MaterialGlass,
	MaterialGlow,
	MaterialMetallic,
	MaterialHologram,
}

// MaterialIndex возвращает индекс материала в палитре хоста.
// Неизвестный или пустой материал отображается на пластик.
func MaterialIndex(m Material) int {
	for i, candidate := range Materials {
		if candidate == m {
			return i
		}
	}
	return 0
}

// Color - цвет в RGB (0-255)
type Color [3]uint8

// Hex возвращает цвет в формате "rrggbb"
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c[0], c[1], c[2])
}

// Type описывает свойства типа вокселя.
// Значения неизменяемы после регистрации в каталоге.
type Type struct {
	Name     string   // Отображаемое имя
	DBName   string   // Ключ для сохранения, уникален в каталоге
	Color    Color    // Цвет вокселей в мире
	Material Material // Материал, пустой - пластик
	HP       int      // Прочность; отрицательная - неразрушимый воксель
}

// Breakable сообщает, можно ли разрушить воксель этого типа
func (t *Type) Breakable() bool {
	return t.HP >= 0
}

// EffectiveMaterial возвращает материал с учётом значения по умолчанию
func (t *Type) EffectiveMaterial() Material {
	if t.Material == "" {
		return MaterialPlastic
	}
	return t.Material
}

func (t *Type) String() string {
	return t.Name
}
