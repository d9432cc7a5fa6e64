package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(28.4636, -16.2518, 28.4636, -16.2518))
}

func TestDistanceShortRange(t *testing.T) {
	// Two stops in Santa Cruz de Tenerife roughly 1.1km apart.
	d := Distance(28.4636, -16.2518, 28.4682, -16.2622)
	assert.InDelta(t, 1140, d, 60)
}

func TestDistanceLongRangeUsesExactFormula(t *testing.T) {
	// Santa Cruz de Tenerife to Las Palmas, roughly 93km. The delta is
	// above the fast-path threshold so the exact formula applies.
	d := Distance(28.4636, -16.2518, 28.1235, -15.4363)
	assert.InDelta(t, 89000, d, 5000)
}

func TestCalculateBoundsContainsCenter(t *testing.T) {
	b := CalculateBounds(28.4636, -16.2518, 500)

	assert.Less(t, b.MinLat, 28.4636)
	assert.Greater(t, b.MaxLat, 28.4636)
	assert.Less(t, b.MinLon, -16.2518)
	assert.Greater(t, b.MaxLon, -16.2518)
}

func TestCalculateBoundsSymmetric(t *testing.T) {
	b := CalculateBounds(28.0, -16.0, 1000)

	assert.InDelta(t, 28.0-b.MinLat, b.MaxLat-28.0, 1e-9)
	assert.InDelta(t, -16.0-b.MinLon, b.MaxLon+16.0, 1e-9)
}
