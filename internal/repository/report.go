package repository

import (
	"context"
	"fmt"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for issue reports.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, reporter_id, agency_id, kind, subject, body, status, created_at, updated_at`

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		rep.ID, rep.ReporterID, rep.AgencyID, rep.Kind, rep.Subject, rep.Body,
		rep.Status, rep.CreatedAt, rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// FindByID returns a report by ID, or nil if none exists.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	var rep domain.Report
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.ReporterID, &rep.AgencyID, &rep.Kind, &rep.Subject, &rep.Body,
		&rep.Status, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find report: %w", err)
	}
	return &rep, nil
}

// ListByAgency returns an agency's reports, newest first.
func (r *ReportRepository) ListByAgency(ctx context.Context, agencyID string) ([]*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE agency_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(&rep.ID, &rep.ReporterID, &rep.AgencyID, &rep.Kind, &rep.Subject, &rep.Body,
			&rep.Status, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, nil
}

// UpdateStatus moves a report to a new workflow status.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE reports SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	return nil
}
