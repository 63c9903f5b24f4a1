package qa

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStores implements every read-only store interface against the
// community schema.
type PostgresStores struct {
	pool *pgxpool.Pool
}

func NewPostgresStores(pool *pgxpool.Pool) *PostgresStores {
	return &PostgresStores{pool: pool}
}

func (s *PostgresStores) Owner(ctx context.Context, id int64) (*Owner, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var owner Owner
	err := s.pool.QueryRow(ctx, `
        SELECT id, name, COALESCE(owner_type, '')
        FROM owners
        WHERE id = $1
    `, id).Scan(&owner.ID, &owner.Name, &owner.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query owner: %w", err)
	}

	return &owner, nil
}

func (s *PostgresStores) ActiveResidences(ctx context.Context, ownerID int64, limit int) ([]Residence, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.pool.Query(ctx, `
        SELECT h.id, h.full_room_no, COALESCE(h.house_layout, ''), COALESCE(h.building_area::text, '')
        FROM house_owners ho
        JOIN houses h ON h.id = ho.house_id
        WHERE ho.owner_id = $1 AND ho.status = $2
        ORDER BY ho.is_primary DESC, h.id
        LIMIT $3
    `, ownerID, statusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("query residences: %w", err)
	}
	defer rows.Close()

	results := make([]Residence, 0, limit)
	for rows.Next() {
		var item Residence
		if scanErr := rows.Scan(&item.HouseID, &item.RoomNo, &item.Layout, &item.BuildingArea); scanErr != nil {
			return nil, fmt.Errorf("scan residence: %w", scanErr)
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

func (s *PostgresStores) PrimaryResidence(ctx context.Context, ownerID int64) (*Residence, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var item Residence
	err := s.pool.QueryRow(ctx, `
        SELECT h.id, h.full_room_no, COALESCE(h.house_layout, ''), COALESCE(h.building_area::text, '')
        FROM house_owners ho
        JOIN houses h ON h.id = ho.house_id
        WHERE ho.owner_id = $1 AND ho.status = $2 AND ho.is_primary = 1
        LIMIT 1
    `, ownerID, statusActive).Scan(&item.HouseID, &item.RoomNo, &item.Layout, &item.BuildingArea)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query primary residence: %w", err)
	}

	return &item, nil
}

func (s *PostgresStores) CountActiveResidences(ctx context.Context, ownerID int64) (int64, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	err := s.pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM house_owners
        WHERE owner_id = $1 AND status = $2
    `, ownerID, statusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count residences: %w", err)
	}

	return count, nil
}

func (s *PostgresStores) ActiveVehicles(ctx context.Context, ownerID int64, limit int) ([]Vehicle, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.pool.Query(ctx, `
        SELECT plate_number, COALESCE(brand, ''), COALESCE(model, ''), COALESCE(vehicle_type, '')
        FROM vehicles
        WHERE owner_id = $1 AND status = $2
        ORDER BY id
        LIMIT $3
    `, ownerID, statusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	results := make([]Vehicle, 0, limit)
	for rows.Next() {
		var item Vehicle
		if scanErr := rows.Scan(&item.Plate, &item.Brand, &item.Model, &item.Type); scanErr != nil {
			return nil, fmt.Errorf("scan vehicle: %w", scanErr)
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

func (s *PostgresStores) ActiveMeters(ctx context.Context, houseID int64, limit int) ([]MeterReading, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.pool.Query(ctx, `
        SELECT category_name, COALESCE(current_reading::text, ''), COALESCE(unit, '')
        FROM meter_info
        WHERE house_id = $1 AND meter_status = $2
        ORDER BY id
        LIMIT $3
    `, houseID, statusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("query meters: %w", err)
	}
	defer rows.Close()

	results := make([]MeterReading, 0, limit)
	for rows.Next() {
		var item MeterReading
		if scanErr := rows.Scan(&item.Category, &item.Reading, &item.Unit); scanErr != nil {
			return nil, fmt.Errorf("scan meter reading: %w", scanErr)
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

func (s *PostgresStores) EnabledDocuments(ctx context.Context, keywords []string, limit int) ([]Document, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 5
	}

	query := `
        SELECT id, title, COALESCE(category, ''), COALESCE(description, ''),
               COALESCE(tags, ''), COALESCE(file_path, ''), COALESCE(file_type, '')
        FROM qa_knowledge
        WHERE status = $1`
	args := []any{statusEnabled}

	if len(keywords) > 0 {
		clause, matchArgs := KeywordMatch([]string{"title", "description", "tags"}, keywords).SQL(len(args) + 1)
		query += " AND " + clause
		args = append(args, matchArgs...)
	}

	query += fmt.Sprintf(" ORDER BY view_count DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query knowledge documents: %w", err)
	}
	defer rows.Close()

	results := make([]Document, 0, limit)
	for rows.Next() {
		var item Document
		if scanErr := rows.Scan(&item.ID, &item.Title, &item.Category, &item.Description,
			&item.Tags, &item.FilePath, &item.FileType); scanErr != nil {
			return nil, fmt.Errorf("scan knowledge document: %w", scanErr)
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

var (
	_ OwnerStore     = (*PostgresStores)(nil)
	_ ResidenceStore = (*PostgresStores)(nil)
	_ VehicleStore   = (*PostgresStores)(nil)
	_ MeterStore     = (*PostgresStores)(nil)
	_ KnowledgeStore = (*PostgresStores)(nil)
)
