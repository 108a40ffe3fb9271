package vec

import "fmt"

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется и для позиций решётки, и для мировых координат хоста.
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// New создаёт вектор из трёх координат
func New(x, y, z int) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает другой вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Mul покомпонентно умножает векторы
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{
		X: v.X * other.X,
		Y: v.Y * other.Y,
		Z: v.Z * other.Z,
	}
}

// DivExact покомпонентно делит векторы.
// Второе значение false, если хотя бы одна координата не делится нацело.
func (v Vec3) DivExact(other Vec3) (Vec3, bool) {
	if other.X == 0 || other.Y == 0 || other.Z == 0 {
		return Vec3{}, false
	}
	if v.X%other.X != 0 || v.Y%other.Y != 0 || v.Z%other.Z != 0 {
		return Vec3{}, false
	}
	return Vec3{X: v.X / other.X, Y: v.Y / other.Y, Z: v.Z / other.Z}, true
}

// Neg возвращает противоположный вектор
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Scale умножает вектор на скаляр
func (v Vec3) Scale(k int) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// DistanceTo возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return float64(dx*dx + dy*dy + dz*dz)
}

// Array возвращает координаты в виде массива [x, y, z] (формат хоста)
func (v Vec3) Array() [3]int {
	return [3]int{v.X, v.Y, v.Z}
}

// FromArray создаёт вектор из массива [x, y, z]
func FromArray(a [3]int) Vec3 {
	return Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func (v Vec3) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}
