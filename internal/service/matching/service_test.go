package matching

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
)

type stubScanner struct {
	candidates []models.NearbyCandidate
	err        error
	gotLimit   int
}

func (s *stubScanner) ScanNearby(_ context.Context, _, _, _ float64, limit int) ([]models.NearbyCandidate, error) {
	s.gotLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	if len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

func candidate(dist float64, vt types.VehicleType, ft types.FuelType, capacity int, pets bool) models.NearbyCandidate {
	return models.NearbyCandidate{
		NearbyDriver: models.NearbyDriver{
			DriverID:       uuid.New(),
			UserID:         uuid.New(),
			Name:           "driver",
			DistanceMeters: dist,
		},
		VehicleType: vt,
		FuelType:    ft,
		Capacity:    capacity,
		PetFriendly: pets,
	}
}

func TestFindNearbyDrivers_InvalidCoordinates(t *testing.T) {
	svc := NewService(&stubScanner{}, logger.NewDiscard())

	cases := []struct {
		name     string
		lat, lng float64
	}{
		{"nan lat", math.NaN(), 71.4},
		{"inf lng", 51.1, math.Inf(1)},
		{"lat out of range", 91, 71.4},
		{"lng out of range", 51.1, -181},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FindNearbyDrivers(context.Background(), tc.lat, tc.lng, 5000, 10, models.MatchFilters{})
			if !errors.Is(err, types.ErrInvalidCoordinates) {
				t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
			}
		})
	}
}

func TestFindNearbyDrivers_FiltersConjunctive(t *testing.T) {
	match := candidate(100, types.VehiclePlus, types.FuelElectric, 6, true)
	scanner := &stubScanner{candidates: []models.NearbyCandidate{
		candidate(50, types.VehicleStandard, types.FuelElectric, 6, true),  // wrong vehicle
		candidate(60, types.VehiclePlus, types.FuelPetrol, 6, true),        // wrong fuel
		candidate(70, types.VehiclePlus, types.FuelElectric, 4, true),      // too small
		candidate(80, types.VehiclePlus, types.FuelElectric, 6, false),     // no pets
		match,
	}}
	svc := NewService(scanner, logger.NewDiscard())

	filters := models.MatchFilters{
		VehicleType:     types.VehiclePlus,
		FuelType:        types.FuelElectric,
		PetFriendly:     true,
		ExtraPassengers: true,
	}
	got, err := svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 5000, 10, filters)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one driver, got %d", len(got))
	}
	if got[0].DriverID != match.DriverID {
		t.Fatalf("wrong driver survived the filters")
	}
}

func TestFindNearbyDrivers_AnyActsAsWildcard(t *testing.T) {
	scanner := &stubScanner{candidates: []models.NearbyCandidate{
		candidate(50, types.VehicleStandard, types.FuelPetrol, 4, false),
		candidate(60, types.VehiclePlus, types.FuelDiesel, 6, true),
	}}
	svc := NewService(scanner, logger.NewDiscard())

	filters := models.MatchFilters{VehicleType: types.VehicleAny, FuelType: types.FuelAny}
	got, err := svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 5000, 10, filters)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("ANY filters must not exclude anyone, got %d drivers", len(got))
	}
}

func TestFindNearbyDrivers_AscendingOrderPreserved(t *testing.T) {
	scanner := &stubScanner{candidates: []models.NearbyCandidate{
		candidate(10, types.VehicleStandard, types.FuelPetrol, 4, false),
		candidate(250, types.VehicleStandard, types.FuelPetrol, 4, false),
		candidate(900, types.VehicleStandard, types.FuelPetrol, 4, false),
	}}
	svc := NewService(scanner, logger.NewDiscard())

	got, err := svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 5000, 10, models.MatchFilters{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceMeters < got[i-1].DistanceMeters {
			t.Fatalf("distance order broken at %d: %f < %f", i, got[i].DistanceMeters, got[i-1].DistanceMeters)
		}
	}
}

func TestFindNearbyDrivers_LimitAfterFiltering(t *testing.T) {
	cands := make([]models.NearbyCandidate, 0, 8)
	for i := 0; i < 8; i++ {
		cands = append(cands, candidate(float64(i*100), types.VehiclePlus, types.FuelPetrol, 4, false))
	}
	scanner := &stubScanner{candidates: cands}
	svc := NewService(scanner, logger.NewDiscard())

	got, err := svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 5000, 3, models.MatchFilters{VehicleType: types.VehiclePlus})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 drivers after truncation, got %d", len(got))
	}
	if scanner.gotLimit <= 3 {
		t.Fatalf("constrained filters should widen the scan, scan limit was %d", scanner.gotLimit)
	}
}

func TestFindNearbyDrivers_ScannerError(t *testing.T) {
	scanErr := errors.New("connection refused")
	svc := NewService(&stubScanner{err: scanErr}, logger.NewDiscard())

	_, err := svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 5000, 10, models.MatchFilters{})
	if !errors.Is(err, scanErr) {
		t.Fatalf("expected scanner error to surface, got %v", err)
	}
}

func TestFindNearbyDrivers_NonPositiveInputs(t *testing.T) {
	scanner := &stubScanner{candidates: []models.NearbyCandidate{
		candidate(10, types.VehicleStandard, types.FuelPetrol, 4, false),
	}}
	svc := NewService(scanner, logger.NewDiscard())

	got, err := svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 0, 10, models.MatchFilters{})
	if err != nil || len(got) != 0 {
		t.Fatalf("zero radius must match nobody, got %v, %v", got, err)
	}
	got, err = svc.FindNearbyDrivers(context.Background(), 51.1, 71.4, 5000, 0, models.MatchFilters{})
	if err != nil || len(got) != 0 {
		t.Fatalf("zero limit must match nobody, got %v, %v", got, err)
	}
}
