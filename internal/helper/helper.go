package helper

import (
	"math"
	"strings"

	"challenge_desk/internal/models"
)

// NormSymbol upper-cases and trims a ticker as the backend does.
func NormSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormSide maps free-form input to a trade side; ok is false for anything
// other than buy or sell.
func NormSide(raw string) (models.Side, bool) {
	s := models.Side(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Clamp limits v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PctChange returns (to-from)/from*100, or 0 when from is not positive.
func PctChange(from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return (to - from) / from * 100
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
