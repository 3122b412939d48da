package repository

import (
	"context"
	"fmt"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TariffRepository handles database operations for tariffs.
type TariffRepository struct {
	db *pgxpool.Pool
}

// NewTariffRepository creates a new TariffRepository.
func NewTariffRepository(db *pgxpool.Pool) *TariffRepository {
	return &TariffRepository{db: db}
}

const tariffColumns = `id, agency_id, label, plan, price, passes_per_month, description, created_at`

// Create inserts a new tariff.
func (r *TariffRepository) Create(ctx context.Context, t *domain.Tariff) error {
	query := `
		INSERT INTO tariffs (` + tariffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.AgencyID, t.Label, t.Plan, t.Price, t.PassesPerMonth, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tariff: %w", err)
	}
	return nil
}

// FindByID returns a tariff by ID, or nil if none exists.
func (r *TariffRepository) FindByID(ctx context.Context, id string) (*domain.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE id = $1`
	var t domain.Tariff
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.AgencyID, &t.Label, &t.Plan, &t.Price, &t.PassesPerMonth, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find tariff: %w", err)
	}
	return &t, nil
}

// ListByAgency returns the tariffs an agency offers.
func (r *TariffRepository) ListByAgency(ctx context.Context, agencyID string) ([]*domain.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE agency_id = $1 ORDER BY price ASC`
	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	defer rows.Close()

	var tariffs []*domain.Tariff
	for rows.Next() {
		var t domain.Tariff
		if err := rows.Scan(&t.ID, &t.AgencyID, &t.Label, &t.Plan, &t.Price, &t.PassesPerMonth, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tariff: %w", err)
		}
		tariffs = append(tariffs, &t)
	}
	return tariffs, nil
}
