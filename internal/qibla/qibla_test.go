package qibla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromKnownCities(t *testing.T) {
	tests := []struct {
		city     string
		lat, lon float64
		bearing  float64
		compass  string
		distance int
	}{
		{"Lahore", 31.5204, 74.3587, 260.37, "W", 3598},
		{"New York", 40.7128, -74.0060, 58.48, "NE", 10306},
		{"London", 51.5074, -0.1278, 118.99, "SE", 4794},
		{"Jakarta", -6.2088, 106.8456, 295.15, "NW", 7920},
		{"Cape Town", -33.9249, 18.4241, 23.35, "NE", 6558},
		{"Medina", 24.4686, 39.6142, 176.29, "S", 339},
	}
	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			d, err := From(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.InDelta(t, tt.bearing, d.Bearing, 0.02)
			assert.Equal(t, tt.compass, d.Compass)
			assert.InDelta(t, tt.distance, d.DistanceKm, 1)
		})
	}
}

func TestFromKaabaItself(t *testing.T) {
	d, err := From(KaabaLatitude, KaabaLongitude)
	require.NoError(t, err)
	assert.Equal(t, 0, d.DistanceKm)
}

func TestFromRejectsOutOfRange(t *testing.T) {
	for _, c := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -180.5}} {
		_, err := From(c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidCoordinates)
	}
}
