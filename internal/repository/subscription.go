package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository handles database operations for subscriptions,
// including the paid-creation and expiry composites. Both composites touch
// several tables (wallets, ledger, client, agency roster, subscription) and
// commit in a single database transaction: either every write lands or none
// does.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, agency_id, tariff_id, plan, total_amount, start_date, end_date, status, renewal_notified, created_at, updated_at`

// FindActiveByUser returns the user's active subscription with the latest
// end date, or nil if none exists.
func (r *SubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions WHERE user_id = $1 AND status = $2
		ORDER BY end_date DESC LIMIT 1
	`
	row := r.db.QueryRow(ctx, query, userID, domain.SubStatusActive)
	sub, err := scanSubscription(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active subscription: %w", err)
	}
	return sub, nil
}

// ListByUser returns all subscriptions of a user, newest first, populated
// with agency summary fields.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SubscriptionResponse, error) {
	query := `
		SELECT s.id, s.user_id, s.agency_id, s.tariff_id, s.plan, s.total_amount,
		       s.start_date, s.end_date, s.status, s.renewal_notified, s.created_at, s.updated_at,
		       a.name, u.name, u.email
		FROM subscriptions s
		JOIN agencies a ON a.id = s.agency_id
		JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`
	return r.queryResponses(ctx, query, userID)
}

// ListAll returns every subscription, newest first, populated with agency
// and user summary fields.
func (r *SubscriptionRepository) ListAll(ctx context.Context) ([]*domain.SubscriptionResponse, error) {
	query := `
		SELECT s.id, s.user_id, s.agency_id, s.tariff_id, s.plan, s.total_amount,
		       s.start_date, s.end_date, s.status, s.renewal_notified, s.created_at, s.updated_at,
		       a.name, u.name, u.email
		FROM subscriptions s
		JOIN agencies a ON a.id = s.agency_id
		JOIN users u ON u.id = s.user_id
		ORDER BY s.created_at DESC
	`
	return r.queryResponses(ctx, query)
}

// CreatePaid persists a new subscription together with its payment in one
// database transaction: guarded debit of the payer wallet, credit of the
// agency owner's wallet (created on the spot if the agency has never been
// paid before), the ledger record, the client's agency pointer + history
// entry, and the idempotent roster insert. rec.DestWalletID is filled with
// the agency wallet id.
func (r *SubscriptionRepository) CreatePaid(ctx context.Context, sub *domain.Subscription, rec *domain.Transaction, payerWalletID, agencyOwnerUserID, clientID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin subscription payment: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := guardedDebit(ctx, tx, payerWalletID, rec.Amount); err != nil {
		return err
	}

	// Upsert-credit the agency owner's wallet in one statement; the fresh id
	// is discarded when the wallet already exists.
	var destWalletID string
	err = tx.QueryRow(ctx, `
		INSERT INTO wallets (id, user_id, balance, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING id
	`, domain.NewID(), agencyOwnerUserID, rec.Amount, domain.WalletKindStandard).Scan(&destWalletID)
	if err != nil {
		return fmt.Errorf("failed to credit agency wallet: %w", err)
	}
	rec.DestWalletID = destWalletID

	if err := insertTransaction(ctx, tx, rec); err != nil {
		return err
	}
	if err := completeTransaction(ctx, tx, rec.ID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE clients SET subscribed_agency_id = $1, updated_at = NOW() WHERE id = $2`,
		sub.AgencyID, clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to set client agency: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO client_subscription_history (client_id, date, status, offer) VALUES ($1, $2, $3, $4)`,
		clientID, sub.StartDate, domain.SubStatusActive, sub.Plan,
	)
	if err != nil {
		return fmt.Errorf("failed to append subscription history: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO agency_clients (agency_id, client_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		sub.AgencyID, clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to add client to agency roster: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, sub.ID, sub.UserID, sub.AgencyID, sub.TariffID, sub.Plan, sub.TotalAmount,
		sub.StartDate, sub.EndDate, sub.Status, sub.RenewalNotified, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit subscription payment: %w", err)
	}
	rec.Status = domain.TxStatusCompleted
	return nil
}

// ListExpiring returns active subscriptions ending inside (now, cutoff]
// that have not yet been warned about.
func (r *SubscriptionRepository) ListExpiring(ctx context.Context, now, cutoff time.Time) ([]*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND renewal_notified = FALSE AND end_date > $2 AND end_date <= $3
	`
	return r.querySubscriptions(ctx, query, domain.SubStatusActive, now, cutoff)
}

// MarkRenewalNotified sets the dedupe flag after an expiring-soon warning.
func (r *SubscriptionRepository) MarkRenewalNotified(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET renewal_notified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark renewal notified: %w", err)
	}
	return nil
}

// ListExpired returns active subscriptions whose end date has passed.
func (r *SubscriptionRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions WHERE status = $1 AND end_date < $2
	`
	return r.querySubscriptions(ctx, query, domain.SubStatusActive, now)
}

// Expire transitions a subscription to canceled and detaches the client
// from the agency, all in one transaction. The status filter makes the
// transition a no-op when a concurrent writer got there first. A client row
// that no longer exists does not abort the status change.
func (r *SubscriptionRepository) Expire(ctx context.Context, sub *domain.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin expiry: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		domain.SubStatusCanceled, sub.ID, domain.SubStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil // already transitioned
	}

	var clientID string
	err = tx.QueryRow(ctx, `SELECT id FROM clients WHERE user_id = $1`, sub.UserID).Scan(&clientID)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("failed to resolve client: %w", err)
	}
	if err == nil {
		_, err = tx.Exec(ctx,
			`DELETE FROM agency_clients WHERE agency_id = $1 AND client_id = $2`,
			sub.AgencyID, clientID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove client from agency roster: %w", err)
		}
		// Only clear the pointer while it still references this agency; a
		// concurrent subscription to another agency must win.
		_, err = tx.Exec(ctx,
			`UPDATE clients SET subscribed_agency_id = NULL, updated_at = NOW() WHERE id = $1 AND subscribed_agency_id = $2`,
			clientID, sub.AgencyID,
		)
		if err != nil {
			return fmt.Errorf("failed to clear client agency: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expiry: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r *SubscriptionRepository) queryResponses(ctx context.Context, query string, args ...any) ([]*domain.SubscriptionResponse, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.SubscriptionResponse
	for rows.Next() {
		var resp domain.SubscriptionResponse
		err := rows.Scan(
			&resp.ID, &resp.UserID, &resp.AgencyID, &resp.TariffID, &resp.Plan, &resp.TotalAmount,
			&resp.StartDate, &resp.EndDate, &resp.Status, &resp.RenewalNotified, &resp.CreatedAt, &resp.UpdatedAt,
			&resp.AgencyName, &resp.UserName, &resp.UserEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &resp)
	}
	return subs, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.AgencyID, &sub.TariffID, &sub.Plan, &sub.TotalAmount,
		&sub.StartDate, &sub.EndDate, &sub.Status, &sub.RenewalNotified, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
