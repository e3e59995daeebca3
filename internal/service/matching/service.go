package matching

import (
	"context"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	"github.com/nurkan-dev/ride-dispatch/pkg/validator"
)

// overfetchFactor widens the spatial scan when attribute filters are
// active, so filtering in memory still yields up to limit drivers.
const overfetchFactor = 4

// Service answers "which drivers could take this ride" queries. The
// spatial predicate runs in the store; attribute filters apply here so
// their semantics stay in one place.
type Service struct {
	scanner DriverScanner
	l       logger.Logger
}

func NewService(scanner DriverScanner, l logger.Logger) *Service {
	return &Service{scanner: scanner, l: l}
}

// FindNearbyDrivers returns up to limit drivers matching the filters,
// ordered by ascending distance from (lat, lng).
func (s *Service) FindNearbyDrivers(ctx context.Context, lat, lng, radiusM float64, limit int, filters models.MatchFilters) ([]models.NearbyDriver, error) {
	if !validator.LatitudeInRange(lat) || !validator.LongitudeInRange(lng) {
		return nil, types.ErrInvalidCoordinates
	}
	if radiusM <= 0 || limit <= 0 {
		return []models.NearbyDriver{}, nil
	}

	scanLimit := limit
	if filters.Constrained() {
		scanLimit = limit * overfetchFactor
	}

	candidates, err := s.scanner.ScanNearby(ctx, lat, lng, radiusM, scanLimit)
	if err != nil {
		return nil, err
	}

	drivers := make([]models.NearbyDriver, 0, limit)
	for _, c := range candidates {
		if !filters.Matches(c) {
			continue
		}
		drivers = append(drivers, c.NearbyDriver)
		if len(drivers) == limit {
			break
		}
	}

	return drivers, nil
}
