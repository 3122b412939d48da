package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientRepository handles database operations for client profiles.
type ClientRepository struct {
	db *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, user_id, address, zone_id, qr_token, subscribed_agency_id, created_at, updated_at`

// Create inserts a new client profile. A user can hold only one profile.
func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.UserID, c.Address, c.ZoneID, c.QRToken, c.SubscribedAgencyID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict("client profile already exists for this user")
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// FindByUser returns the client profile of a user, or nil if none exists.
func (r *ClientRepository) FindByUser(ctx context.Context, userID string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// FindByID returns a client profile by ID, or nil if none exists.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindByQRToken resolves the client behind a scanned QR sticker, or nil if
// the token is unknown.
func (r *ClientRepository) FindByQRToken(ctx context.Context, token string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE qr_token = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, token))
}

// Update modifies a client's address and zone.
func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	query := `
		UPDATE clients SET address = $1, zone_id = $2, updated_at = NOW() WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, c.Address, c.ZoneID, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// History returns a client's subscription history, oldest first.
func (r *ClientRepository) History(ctx context.Context, clientID string) ([]*domain.SubscriptionHistoryEntry, error) {
	query := `SELECT date, status, offer FROM client_subscription_history WHERE client_id = $1 ORDER BY date ASC`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.SubscriptionHistoryEntry
	for rows.Next() {
		var e domain.SubscriptionHistoryEntry
		if err := rows.Scan(&e.Date, &e.Status, &e.Offer); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

func (r *ClientRepository) scanOne(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.UserID, &c.Address, &c.ZoneID, &c.QRToken, &c.SubscribedAgencyID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return &c, nil
}
