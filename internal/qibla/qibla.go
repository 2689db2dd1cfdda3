package qibla

import (
	"errors"
	"fmt"
	"math"
)

// Kaaba coordinates in degrees.
const (
	KaabaLatitude  = 21.4225
	KaabaLongitude = 39.8262
)

const earthRadiusKm = 6371

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Direction is the way to face from a point on earth.
type Direction struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Bearing    float64 `json:"bearing"` // degrees clockwise from true north, [0, 360)
	Compass    string  `json:"compass"`
	DistanceKm int     `json:"distance_km"`
}

// From computes the qibla direction for the given coordinates.
func From(lat, lon float64) (Direction, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Direction{}, fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, lat, lon)
	}
	b := Bearing(lat, lon)
	return Direction{
		Latitude:   lat,
		Longitude:  lon,
		Bearing:    math.Round(b*100) / 100,
		Compass:    compassPoint(b),
		DistanceKm: int(math.Round(DistanceKm(lat, lon, KaabaLatitude, KaabaLongitude))),
	}, nil
}

// Bearing is the initial great-circle bearing from (lat, lon) to the Kaaba.
func Bearing(lat, lon float64) float64 {
	dLon := radians(KaabaLongitude - lon)
	lat1, lat2 := radians(lat), radians(KaabaLatitude)
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// DistanceKm is the haversine distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

var points = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func compassPoint(bearing float64) string {
	return points[int((bearing+22.5)/45)%len(points)]
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
