package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума по умолчанию
const (
	defaultAlpha   = 2.0 // Сглаживание шума
	defaultBeta    = 2.0 // Частота шума
	defaultOctaves = 3   // Количество октав
)

// Noise - генератор шума Перлина с фиксированным сидом
type Noise struct {
	perlin *perlin.Perlin
	scale  float64
}

// NewNoise создаёт генератор; scale задаёт масштаб координат (0 - без масштабирования)
func NewNoise(seed int64, scale float64) *Noise {
	if scale <= 0 {
		scale = 1
	}
	return &Noise{
		perlin: perlin.NewPerlin(defaultAlpha, defaultBeta, defaultOctaves, seed),
		scale:  scale,
	}
}

// At2D возвращает значение шума для точки плоскости (от 0 до 1)
func (n *Noise) At2D(x, y float64) float64 {
	return normalize(n.perlin.Noise2D(x/n.scale, y/n.scale))
}

// At3D возвращает значение шума для точки пространства (от 0 до 1)
func (n *Noise) At3D(x, y, z float64) float64 {
	return normalize(n.perlin.Noise3D(x/n.scale, y/n.scale, z/n.scale))
}

// Шум Перлина лежит примерно в [-1, 1]; приводим к [0, 1]
func normalize(v float64) float64 {
	v = (v + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
