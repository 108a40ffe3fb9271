package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseDeterministicAndBounded(t *testing.T) {
	a := NewNoise(42, 8)
	b := NewNoise(42, 8)

	for x := -5; x <= 5; x++ {
		for z := -5; z <= 5; z++ {
			v := a.At3D(float64(x), 1.5, float64(z))
			assert.Equal(t, v, b.At3D(float64(x), 1.5, float64(z)), "одинаковый сид даёт одинаковый шум")
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)

			w := a.At2D(float64(x), float64(z))
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, 1.0)
		}
	}
}
