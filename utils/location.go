package utils

import (
	"errors"
	"math"
	"sort"

	"gorm.io/gorm"

	"mechanic-service-server/models"
)

// ErrInvalidCoordinates is returned when a query point or radius is out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Location represents a geographical coordinate
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const earthRadiusKm = 6371

// HaversineDistance calculates the great-circle distance between two points.
// Returns distance in kilometers.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// IsLocationValid checks if the provided coordinates are valid
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// BoundingBox returns the lat/lng degree window that encloses a circle of
// radiusKm around the given point. Near the poles the longitude delta blows
// up, so it is clamped to the full range.
func BoundingBox(loc Location, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusKm / 111.0 // ~111km per degree of latitude
	minLat = loc.Latitude - latDelta
	maxLat = loc.Latitude + latDelta

	cosLat := math.Cos(loc.Latitude * math.Pi / 180)
	if cosLat < 0.01 {
		return minLat, maxLat, -180, 180
	}
	lngDelta := radiusKm / (111.0 * cosLat)
	minLng = loc.Longitude - lngDelta
	maxLng = loc.Longitude + lngDelta
	return minLat, maxLat, minLng, maxLng
}

// FindNearbyMechanics returns available mechanics within radiusKm of the
// query point, ordered by ascending distance. A cheap bounding-box filter
// runs in SQL so the haversine step only sees a plausible subset. Mechanics
// without a known position never match the SQL predicate.
func FindNearbyMechanics(db *gorm.DB, loc Location, radiusKm float64) ([]models.NearbyMechanic, error) {
	if !IsLocationValid(loc.Latitude, loc.Longitude) || radiusKm <= 0 {
		return nil, ErrInvalidCoordinates
	}

	minLat, maxLat, minLng, maxLng := BoundingBox(loc, radiusKm)

	var candidates []models.MechanicProfile
	err := db.Preload("User").
		Where("is_available = ?", true).
		Where("current_lat IS NOT NULL AND current_lng IS NOT NULL").
		Where("current_lat BETWEEN ? AND ?", minLat, maxLat).
		Where("current_lng BETWEEN ? AND ?", minLng, maxLng).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	nearby := make([]models.NearbyMechanic, 0, len(candidates))
	for _, mechanic := range candidates {
		if mechanic.CurrentLat == nil || mechanic.CurrentLng == nil {
			continue
		}
		distance := HaversineDistance(
			loc.Latitude, loc.Longitude,
			*mechanic.CurrentLat, *mechanic.CurrentLng,
		)
		if distance <= radiusKm {
			nearby = append(nearby, models.NearbyMechanic{
				MechanicProfile: mechanic,
				DistanceKm:      distance,
			})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby, nil
}
