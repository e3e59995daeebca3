package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSpatialIndex prepares the geodetic index over current driver
// locations. Every statement is idempotent, so the bootstrap may run on
// each start; matching traffic must not be served before it returns.
func InitSpatialIndex(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`ALTER TABLE driver_locations
			ADD COLUMN IF NOT EXISTS geom geography(Point, 4326)
			GENERATED ALWAYS AS (ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography) STORED`,
		`CREATE INDEX IF NOT EXISTS driver_locations_geom_idx
			ON driver_locations USING GIST (geom)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("spatial index init: %w", err)
		}
	}

	return nil
}
