package matching

import (
	"context"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
)

/*=====================Driver Scanner=============================*/

// DriverScanner is the spatial index port. Implementations return
// ONLINE, APPROVED drivers with a fresh location within radiusM of the
// point, ordered by ascending distance, at most limit rows.
type DriverScanner interface {
	ScanNearby(ctx context.Context, lat, lng, radiusM float64, limit int) ([]models.NearbyCandidate, error)
}
