package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/pkg/payment"
	"github.com/go-playground/validator/v10"
)

// WalletStore is the persistence surface WalletService needs. Transfer and
// Deposit are atomic: balance updates and the ledger record commit together
// or not at all, and the non-negative balance guard is enforced by the
// store itself.
type WalletStore interface {
	Create(ctx context.Context, w *domain.Wallet) error
	FindByUser(ctx context.Context, userID string) (*domain.Wallet, error)
	FindByID(ctx context.Context, id string) (*domain.Wallet, error)
	Transfer(ctx context.Context, rec *domain.Transaction, fromID, toID string) error
	Deposit(ctx context.Context, rec *domain.Transaction, walletID string) error
	ListTransactions(ctx context.Context, walletID string) ([]*domain.Transaction, error)
}

// NotificationStore records side-effect notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// WalletService implements the wallet store and generic ledger operations.
type WalletService struct {
	wallets  WalletStore
	notifs   NotificationStore
	gateway  payment.Gateway
	validate *validator.Validate
}

// NewWalletService creates a new WalletService.
func NewWalletService(wallets WalletStore, notifs NotificationStore, gateway payment.Gateway) *WalletService {
	return &WalletService{
		wallets:  wallets,
		notifs:   notifs,
		gateway:  gateway,
		validate: validator.New(),
	}
}

// Create opens a zero-balance standard wallet for a user. Fails with a
// conflict if the user already has one.
func (s *WalletService) Create(ctx context.Context, userID string) (*domain.Wallet, error) {
	now := time.Now()
	w := &domain.Wallet{
		ID:        domain.NewID(),
		UserID:    userID,
		Balance:   0,
		Kind:      domain.WalletKindStandard,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetByUser returns a user's wallet.
func (s *WalletService) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := s.wallets.FindByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load wallet", err)
	}
	if w == nil {
		return nil, domain.ErrNotFound("wallet not found")
	}
	return w, nil
}

// Transfer executes a generic ledger operation between two wallets. A debit
// moves the amount from the source to the destination; a credit mirrors it,
// so payment and refund flows share one primitive. Exactly one completed
// Transaction record is produced per successful call, and the sum of the
// two balance changes is always zero.
func (s *WalletService) Transfer(ctx context.Context, actorID string, req *domain.TransferRequest) (*domain.Transaction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}
	if req.SourceWalletID == req.DestWalletID {
		return nil, domain.ErrBadRequest("source and destination wallets must differ")
	}

	source, err := s.wallets.FindByID(ctx, req.SourceWalletID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load source wallet", err)
	}
	if source == nil {
		return nil, domain.ErrNotFound("source wallet not found")
	}
	dest, err := s.wallets.FindByID(ctx, req.DestWalletID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load destination wallet", err)
	}
	if dest == nil {
		return nil, domain.ErrNotFound("destination wallet not found")
	}

	// Resolve the paying wallet. The store re-checks the balance inside the
	// same statement that debits it, so this precheck only produces a
	// friendlier error before any write starts.
	payer := source
	fromID, toID := source.ID, dest.ID
	if req.Type == domain.TxTypeCredit {
		payer = dest
		fromID, toID = dest.ID, source.ID
	}
	if payer.Balance < req.Amount {
		return nil, domain.ErrInsufficientFunds("insufficient wallet balance")
	}

	rec := &domain.Transaction{
		ID:             domain.NewID(),
		ActorID:        actorID,
		Amount:         req.Amount,
		Type:           req.Type,
		SourceWalletID: req.SourceWalletID,
		DestWalletID:   req.DestWalletID,
		Cause:          req.Cause,
		CreatedAt:      time.Now(),
	}
	if err := s.wallets.Transfer(ctx, rec, fromID, toID); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListTransactions returns the ledger records of a user's wallet.
func (s *WalletService) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	w, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := s.wallets.ListTransactions(ctx, w.ID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list transactions", err)
	}
	return txs, nil
}

// CreateTopUp starts a wallet top-up through the external payment gateway
// and returns the checkout link.
func (s *WalletService) CreateTopUp(ctx context.Context, userID string, req *domain.TopUpRequest) (*domain.PaymentLinkResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}
	if _, err := s.GetByUser(ctx, userID); err != nil {
		return nil, err
	}

	orderID := domain.NewID()
	url, err := s.gateway.CreatePaymentLink(userID, orderID, req.Amount)
	if err != nil {
		return nil, domain.ErrInternal("failed to create payment link", err)
	}
	return &domain.PaymentLinkResponse{PaymentURL: url, OrderID: orderID}, nil
}

// HandlePaymentWebhook processes a settled gateway payment by crediting the
// user's wallet. Non-success statuses are ignored.
func (s *WalletService) HandlePaymentWebhook(ctx context.Context, userID string, amount int64, status string) error {
	if status != payment.StatusSuccess {
		return nil
	}
	if amount <= 0 {
		return domain.ErrBadRequest("top-up amount must be positive")
	}

	w, err := s.GetByUser(ctx, userID)
	if err != nil {
		return err
	}

	rec := &domain.Transaction{
		ID:           domain.NewID(),
		ActorID:      userID,
		Amount:       amount,
		Type:         domain.TxTypeCredit,
		DestWalletID: w.ID,
		Cause:        "wallet top-up",
		CreatedAt:    time.Now(),
	}
	if err := s.wallets.Deposit(ctx, rec, w.ID); err != nil {
		return err
	}

	s.notify(ctx, userID, fmt.Sprintf("Your wallet was credited with %d.", amount), domain.NotifPaymentReceived)
	return nil
}

// notify records a notification, logging instead of failing the caller.
func (s *WalletService) notify(ctx context.Context, userID, message, kind string) {
	n := &domain.Notification{
		ID:        domain.NewID(),
		UserID:    userID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if err := s.notifs.Create(ctx, n); err != nil {
		log.Printf("[Wallet] failed to create notification for %s: %v", userID, err)
	}
}
