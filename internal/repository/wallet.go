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

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// WalletRepository handles database operations for wallets and the
// transaction ledger. Balance mutations and their audit records always
// commit in a single database transaction, with the non-negative balance
// guard expressed in the UPDATE filter so concurrent debits cannot race
// past an application-level check.
type WalletRepository struct {
	db *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create inserts a new wallet. At most one wallet exists per user; a second
// create for the same user fails with a conflict.
func (r *WalletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, w.ID, w.UserID, w.Balance, w.Kind, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict("wallet already exists for this user")
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// FindByUser returns the wallet owned by a user, or nil if none exists.
func (r *WalletRepository) FindByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, balance, kind, created_at, updated_at
		FROM wallets WHERE user_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// FindByID returns a wallet by ID, or nil if none exists.
func (r *WalletRepository) FindByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, balance, kind, created_at, updated_at
		FROM wallets WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// Transfer atomically moves rec.Amount from the wallet fromID to the wallet
// toID and appends the audit record. The record is inserted pending and
// flipped to completed before commit, so readers only ever observe
// completed rows. Fails with InsufficientFunds when the source balance
// cannot cover the amount, leaving both wallets untouched.
func (r *WalletRepository) Transfer(ctx context.Context, rec *domain.Transaction, fromID, toID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	rec.Status = domain.TxStatusPending
	if err := insertTransaction(ctx, tx, rec); err != nil {
		return err
	}

	if err := guardedDebit(ctx, tx, fromID, rec.Amount); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		rec.Amount, toID,
	)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("destination wallet not found")
	}

	if err := completeTransaction(ctx, tx, rec.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	rec.Status = domain.TxStatusCompleted
	return nil
}

// Deposit atomically credits a wallet with externally sourced value (wallet
// top-up) and appends the audit record. The record carries no source wallet.
func (r *WalletRepository) Deposit(ctx context.Context, rec *domain.Transaction, walletID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin deposit: %w", err)
	}
	defer tx.Rollback(ctx)

	rec.SourceWalletID = ""
	rec.Status = domain.TxStatusPending
	if err := insertTransaction(ctx, tx, rec); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		rec.Amount, walletID,
	)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("wallet not found")
	}

	if err := completeTransaction(ctx, tx, rec.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit deposit: %w", err)
	}
	rec.Status = domain.TxStatusCompleted
	return nil
}

// ListTransactions returns the ledger records touching a wallet, newest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, actor_id, amount, type, COALESCE(source_wallet_id, ''), dest_wallet_id, status, cause, created_at
		FROM transactions
		WHERE source_wallet_id = $1 OR dest_wallet_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.ActorID, &t.Amount, &t.Type, &t.SourceWalletID, &t.DestWalletID, &t.Status, &t.Cause, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	return txs, nil
}

func (r *WalletRepository) scanOne(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.Kind, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return &w, nil
}

// guardedDebit subtracts amount from a wallet with the balance check in the
// UPDATE filter. Distinguishes a missing wallet from an uncovered balance.
func guardedDebit(ctx context.Context, tx pgx.Tx, walletID string, amount int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance - $1, updated_at = NOW() WHERE id = $2 AND balance >= $1`,
		amount, walletID,
	)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id = $1)`, walletID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check wallet existence: %w", err)
		}
		if !exists {
			return domain.ErrNotFound("source wallet not found")
		}
		return domain.ErrInsufficientFunds("insufficient wallet balance")
	}
	return nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, rec *domain.Transaction) error {
	var source any
	if rec.SourceWalletID != "" {
		source = rec.SourceWalletID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, actor_id, amount, type, source_wallet_id, dest_wallet_id, status, cause, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.ActorID, rec.Amount, rec.Type, source, rec.DestWalletID, domain.TxStatusPending, rec.Cause, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func completeTransaction(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, domain.TxStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to complete transaction: %w", err)
	}
	return nil
}
