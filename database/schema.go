package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureCommunitySchema creates the community tables the QA pipeline reads.
// The records themselves are authored by the property-management backoffice;
// this service only ever queries them.
func EnsureCommunitySchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS owners (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			owner_type TEXT,
			phone TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS houses (
			id BIGSERIAL PRIMARY KEY,
			full_room_no TEXT NOT NULL,
			house_layout TEXT,
			building_area NUMERIC(10,2),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS house_owners (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES owners(id),
			house_id BIGINT NOT NULL REFERENCES houses(id),
			status TEXT NOT NULL DEFAULT '正常',
			is_primary SMALLINT NOT NULL DEFAULT 0,
			UNIQUE(owner_id, house_id)
		)`,
		`CREATE TABLE IF NOT EXISTS vehicles (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES owners(id),
			plate_number TEXT NOT NULL,
			brand TEXT,
			model TEXT,
			vehicle_type TEXT,
			status TEXT NOT NULL DEFAULT '正常'
		)`,
		`CREATE TABLE IF NOT EXISTS meter_info (
			id BIGSERIAL PRIMARY KEY,
			house_id BIGINT NOT NULL REFERENCES houses(id),
			category_name TEXT NOT NULL,
			current_reading NUMERIC(12,2),
			unit TEXT,
			meter_status TEXT NOT NULL DEFAULT '正常'
		)`,
		`CREATE TABLE IF NOT EXISTS qa_knowledge (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT,
			description TEXT,
			tags TEXT,
			status TEXT NOT NULL DEFAULT '启用',
			view_count BIGINT NOT NULL DEFAULT 0,
			file_path TEXT,
			file_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		"CREATE INDEX IF NOT EXISTS idx_house_owners_owner ON house_owners(owner_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_vehicles_owner ON vehicles(owner_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_meter_info_house ON meter_info(house_id, meter_status)",
		"CREATE INDEX IF NOT EXISTS idx_qa_knowledge_status ON qa_knowledge(status, view_count DESC)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
