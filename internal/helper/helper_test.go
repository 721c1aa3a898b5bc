package helper

import (
	"math"
	"testing"

	"challenge_desk/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5, 0, 1))
	assert.Equal(t, 1.0, Clamp(1.7, 0, 1))
	assert.Equal(t, 0.25, Clamp(0.25, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
}

func TestPctChange(t *testing.T) {
	assert.InDelta(t, 10.0, PctChange(5000, 5500), 1e-9)
	assert.InDelta(t, -2.5, PctChange(10000, 9750), 1e-9)
	assert.Equal(t, 0.0, PctChange(0, 100))
}

func TestNormSide(t *testing.T) {
	s, ok := NormSide(" BUY ")
	assert.True(t, ok)
	assert.Equal(t, models.SideBuy, s)

	_, ok = NormSide("hold")
	assert.False(t, ok)
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite(1.5))
	assert.False(t, Finite(math.Inf(1)))
	assert.False(t, Finite(math.NaN()))
}
