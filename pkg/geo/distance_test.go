package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineZeroDistance(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(55.7558, 37.6173, 55.7558, 37.6173))
}

func TestHaversineSymmetry(t *testing.T) {
	a := Haversine(55.7558, 37.6173, 59.9311, 30.3609)
	b := Haversine(59.9311, 30.3609, 55.7558, 37.6173)
	assert.InDelta(t, a, b, 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Moscow to Saint Petersburg, roughly 634 km.
	d := Haversine(55.7558, 37.6173, 59.9311, 30.3609)
	assert.InDelta(t, 634, d, 5)
}

func TestHaversineQuarterMeridian(t *testing.T) {
	// Equator to pole along a meridian is a quarter of the
	// circumference.
	d := Haversine(0, 0, 90, 0)
	expected := math.Pi * 6371.0 / 2
	assert.InDelta(t, expected, d, 0.001)
}

func TestHaversineAntimeridian(t *testing.T) {
	// Crossing the date line must not produce a half-globe distance.
	d := Haversine(0, 179.5, 0, -179.5)
	assert.Less(t, d, 200.0)
	assert.Greater(t, d, 0.0)
}
