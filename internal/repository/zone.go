package repository

import (
	"context"
	"fmt"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ZoneRepository handles database operations for service zones.
type ZoneRepository struct {
	db *pgxpool.Pool
}

// NewZoneRepository creates a new ZoneRepository.
func NewZoneRepository(db *pgxpool.Pool) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Create inserts a new zone.
func (r *ZoneRepository) Create(ctx context.Context, z *domain.Zone) error {
	query := `
		INSERT INTO zones (id, agency_id, name, district, pickup_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, z.ID, z.AgencyID, z.Name, z.District, z.PickupNote, z.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create zone: %w", err)
	}
	return nil
}

// FindByID returns a zone by ID, or nil if none exists.
func (r *ZoneRepository) FindByID(ctx context.Context, id string) (*domain.Zone, error) {
	query := `SELECT id, agency_id, name, district, pickup_note, created_at FROM zones WHERE id = $1`
	var z domain.Zone
	err := r.db.QueryRow(ctx, query, id).Scan(&z.ID, &z.AgencyID, &z.Name, &z.District, &z.PickupNote, &z.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find zone: %w", err)
	}
	return &z, nil
}

// ListByAgency returns all zones of an agency.
func (r *ZoneRepository) ListByAgency(ctx context.Context, agencyID string) ([]*domain.Zone, error) {
	query := `SELECT id, agency_id, name, district, pickup_note, created_at FROM zones WHERE agency_id = $1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	var zones []*domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.AgencyID, &z.Name, &z.District, &z.PickupNote, &z.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, &z)
	}
	return zones, nil
}
