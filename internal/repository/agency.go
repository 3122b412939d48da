package repository

import (
	"context"
	"fmt"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AgencyRepository handles database operations for agencies and their
// client roster.
type AgencyRepository struct {
	db *pgxpool.Pool
}

// NewAgencyRepository creates a new AgencyRepository.
func NewAgencyRepository(db *pgxpool.Pool) *AgencyRepository {
	return &AgencyRepository{db: db}
}

// Create inserts a new agency.
func (r *AgencyRepository) Create(ctx context.Context, a *domain.Agency) error {
	query := `
		INSERT INTO agencies (id, owner_user_id, name, city, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.OwnerUserID, a.Name, a.City, a.Phone, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agency: %w", err)
	}
	return nil
}

// FindByID returns an agency by ID, or nil if none exists.
func (r *AgencyRepository) FindByID(ctx context.Context, id string) (*domain.Agency, error) {
	query := `SELECT id, owner_user_id, name, city, phone, created_at FROM agencies WHERE id = $1`
	var a domain.Agency
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.OwnerUserID, &a.Name, &a.City, &a.Phone, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find agency: %w", err)
	}
	return &a, nil
}

// FindByOwner returns the agency owned by a user, or nil if none exists.
func (r *AgencyRepository) FindByOwner(ctx context.Context, ownerUserID string) (*domain.Agency, error) {
	query := `SELECT id, owner_user_id, name, city, phone, created_at FROM agencies WHERE owner_user_id = $1`
	var a domain.Agency
	err := r.db.QueryRow(ctx, query, ownerUserID).Scan(&a.ID, &a.OwnerUserID, &a.Name, &a.City, &a.Phone, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find agency: %w", err)
	}
	return &a, nil
}

// ListAll returns all agencies ordered by creation date.
func (r *AgencyRepository) ListAll(ctx context.Context) ([]*domain.Agency, error) {
	query := `SELECT id, owner_user_id, name, city, phone, created_at FROM agencies ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	defer rows.Close()

	var agencies []*domain.Agency
	for rows.Next() {
		var a domain.Agency
		if err := rows.Scan(&a.ID, &a.OwnerUserID, &a.Name, &a.City, &a.Phone, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		agencies = append(agencies, &a)
	}
	return agencies, nil
}

// ListClients returns the clients currently on an agency's roster.
func (r *AgencyRepository) ListClients(ctx context.Context, agencyID string) ([]*domain.Client, error) {
	query := `
		SELECT c.id, c.user_id, c.address, c.zone_id, c.qr_token, c.subscribed_agency_id, c.created_at, c.updated_at
		FROM agency_clients ac
		JOIN clients c ON c.id = ac.client_id
		WHERE ac.agency_id = $1
		ORDER BY ac.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agency clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.UserID, &c.Address, &c.ZoneID, &c.QRToken, &c.SubscribedAgencyID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, nil
}
