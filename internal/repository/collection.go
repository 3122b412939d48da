package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CollectionRepository handles database operations for collection rounds
// and QR scans.
type CollectionRepository struct {
	db *pgxpool.Pool
}

// NewCollectionRepository creates a new CollectionRepository.
func NewCollectionRepository(db *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{db: db}
}

const roundColumns = `id, agency_id, zone_id, collector_id, starts_at, ends_at, status, created_at`

// CreateRound inserts a new collection round.
func (r *CollectionRepository) CreateRound(ctx context.Context, round *domain.CollectionRound) error {
	query := `
		INSERT INTO collection_rounds (` + roundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		round.ID, round.AgencyID, round.ZoneID, round.CollectorID,
		round.StartsAt, round.EndsAt, round.Status, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// FindRound returns a round by ID, or nil if none exists.
func (r *CollectionRepository) FindRound(ctx context.Context, id string) (*domain.CollectionRound, error) {
	query := `SELECT ` + roundColumns + ` FROM collection_rounds WHERE id = $1`
	var round domain.CollectionRound
	err := r.db.QueryRow(ctx, query, id).Scan(
		&round.ID, &round.AgencyID, &round.ZoneID, &round.CollectorID,
		&round.StartsAt, &round.EndsAt, &round.Status, &round.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find round: %w", err)
	}
	return &round, nil
}

// ListRoundsByAgency returns an agency's rounds, newest first.
func (r *CollectionRepository) ListRoundsByAgency(ctx context.Context, agencyID string) ([]*domain.CollectionRound, error) {
	query := `SELECT ` + roundColumns + ` FROM collection_rounds WHERE agency_id = $1 ORDER BY starts_at DESC`
	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*domain.CollectionRound
	for rows.Next() {
		var round domain.CollectionRound
		if err := rows.Scan(&round.ID, &round.AgencyID, &round.ZoneID, &round.CollectorID,
			&round.StartsAt, &round.EndsAt, &round.Status, &round.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, &round)
	}
	return rounds, nil
}

// UpdateRoundStatus transitions a round from one status to another. Returns
// false when the round was not in the expected status.
func (r *CollectionRepository) UpdateRoundStatus(ctx context.Context, id, from, to string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE collection_rounds SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update round status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeactivateFinished marks every active round whose end time has passed as
// completed, returning how many were transitioned.
func (r *CollectionRepository) DeactivateFinished(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE collection_rounds SET status = $1 WHERE status = $2 AND ends_at < $3`,
		domain.RoundStatusCompleted, domain.RoundStatusActive, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate rounds: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateScan inserts a QR scan record. A client can be scanned at most once
// per round; a duplicate fails with a conflict.
func (r *CollectionRepository) CreateScan(ctx context.Context, s *domain.CollectionScan) error {
	query := `
		INSERT INTO collection_scans (id, round_id, client_id, collector_id, scanned_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.RoundID, s.ClientID, s.CollectorID, s.ScannedAt, s.Note)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict("client already scanned in this round")
		}
		return fmt.Errorf("failed to create scan: %w", err)
	}
	return nil
}

// ListScansByRound returns the scans recorded during a round, oldest first.
func (r *CollectionRepository) ListScansByRound(ctx context.Context, roundID string) ([]*domain.CollectionScan, error) {
	query := `
		SELECT id, round_id, client_id, collector_id, scanned_at, note
		FROM collection_scans WHERE round_id = $1 ORDER BY scanned_at ASC
	`
	rows, err := r.db.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []*domain.CollectionScan
	for rows.Next() {
		var s domain.CollectionScan
		if err := rows.Scan(&s.ID, &s.RoundID, &s.ClientID, &s.CollectorID, &s.ScannedAt, &s.Note); err != nil {
			return nil, fmt.Errorf("failed to scan collection scan: %w", err)
		}
		scans = append(scans, &s)
	}
	return scans, nil
}
