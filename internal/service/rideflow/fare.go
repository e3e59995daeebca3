package rideflow

import (
	"math"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
)

const (
	baseFare    = 1000.0
	perKmRate   = 350.0
	minimumFare = 1500.0

	earthRadiusM = 6_371_000.0
)

// EstimateFare prices a ride by straight-line distance. Used when the
// client did not quote a fare; rounded to the nearest 100.
func EstimateFare(pickup, dropoff models.GeoPoint) float64 {
	km := haversineMeters(pickup.Latitude, pickup.Longitude, dropoff.Latitude, dropoff.Longitude) / 1000

	fare := baseFare + perKmRate*km
	if fare < minimumFare {
		fare = minimumFare
	}
	return math.Round(fare/100) * 100
}

// haversineMeters is the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
