package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Jakarta (Monas) to Bandung (Gedung Sate), roughly 118 km.
	dist := HaversineDistance(-6.1754, 106.8272, -6.9025, 107.6186)
	assert.InDelta(t, 118, dist, 5)

	// Same point is zero.
	assert.Zero(t, HaversineDistance(-6.1754, 106.8272, -6.1754, 106.8272))
}

func TestIsLocationValid(t *testing.T) {
	assert.True(t, IsLocationValid(-6.1754, 106.8272))
	assert.False(t, IsLocationValid(0, 0))
	assert.False(t, IsLocationValid(91, 100))
	assert.False(t, IsLocationValid(-91, 100))
	assert.False(t, IsLocationValid(10, 181))
	assert.False(t, IsLocationValid(10, -181))
}
