package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/colectra/backend/internal/config"
	"github.com/colectra/backend/internal/domain"
)

// SubscriptionStore is the persistence surface SubscriptionService and the
// sweeper need. CreatePaid and Expire are composites that commit all their
// writes in one database transaction.
type SubscriptionStore interface {
	FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.SubscriptionResponse, error)
	ListAll(ctx context.Context) ([]*domain.SubscriptionResponse, error)
	CreatePaid(ctx context.Context, sub *domain.Subscription, rec *domain.Transaction, payerWalletID, agencyOwnerUserID, clientID string) error
	ListExpiring(ctx context.Context, now, cutoff time.Time) ([]*domain.Subscription, error)
	MarkRenewalNotified(ctx context.Context, id string) error
	ListExpired(ctx context.Context, now time.Time) ([]*domain.Subscription, error)
	Expire(ctx context.Context, sub *domain.Subscription) error
}

// TariffStore resolves tariffs.
type TariffStore interface {
	FindByID(ctx context.Context, id string) (*domain.Tariff, error)
}

// ClientStore resolves client profiles by owner.
type ClientStore interface {
	FindByUser(ctx context.Context, userID string) (*domain.Client, error)
}

// AgencyStore resolves agencies.
type AgencyStore interface {
	FindByID(ctx context.Context, id string) (*domain.Agency, error)
}

// SubscriptionService implements the subscription lifecycle: a paid,
// time-bounded entitlement linking a client to an agency under a tariff.
type SubscriptionService struct {
	subs     SubscriptionStore
	tariffs  TariffStore
	wallets  WalletStore
	clients  ClientStore
	agencies AgencyStore
	notifs   NotificationStore
	anchor   string // config.RenewalAnchorPayment or config.RenewalAnchorPeriod
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	subs SubscriptionStore,
	tariffs TariffStore,
	wallets WalletStore,
	clients ClientStore,
	agencies AgencyStore,
	notifs NotificationStore,
	renewalAnchor string,
) *SubscriptionService {
	return &SubscriptionService{
		subs:     subs,
		tariffs:  tariffs,
		wallets:  wallets,
		clients:  clients,
		agencies: agencies,
		notifs:   notifs,
		anchor:   renewalAnchor,
	}
}

// Create purchases a subscription of the given tariff for a user, debiting
// the user's wallet and crediting the agency's. When the user already holds
// an active subscription, the new one starts where the old one ends
// (back-to-back renewal). The end date is counted in calendar months from
// the configured anchor: the payment instant, or the chained start date.
// Every write — both wallets, the ledger record, the client's agency
// pointer and history, the roster insert, and the subscription itself —
// commits in one database transaction.
func (s *SubscriptionService) Create(ctx context.Context, userID, tariffID string, months int) (*domain.Subscription, error) {
	if months <= 0 {
		return nil, domain.ErrBadRequest("number of months must be positive")
	}

	tariff, err := s.tariffs.FindByID(ctx, tariffID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load tariff", err)
	}
	if tariff == nil {
		return nil, domain.ErrNotFound("tariff not found")
	}

	agency, err := s.agencies.FindByID(ctx, tariff.AgencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load agency", err)
	}
	if agency == nil {
		return nil, domain.ErrNotFound("agency not found")
	}

	client, err := s.clients.FindByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load client profile", err)
	}
	if client == nil {
		return nil, domain.ErrNotFound("client profile not found")
	}

	now := time.Now()
	startDate := now
	if prior, err := s.subs.FindActiveByUser(ctx, userID); err != nil {
		return nil, domain.ErrInternal("failed to load current subscription", err)
	} else if prior != nil {
		startDate = prior.EndDate
	}

	anchor := now
	if s.anchor == config.RenewalAnchorPeriod {
		anchor = startDate
	}
	endDate := anchor.AddDate(0, months, 0)
	totalAmount := tariff.Price * int64(months)

	wallet, err := s.wallets.FindByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet not found")
	}
	if wallet.Balance < totalAmount {
		return nil, domain.ErrInsufficientFunds("insufficient wallet balance")
	}

	sub := &domain.Subscription{
		ID:          domain.NewID(),
		UserID:      userID,
		AgencyID:    tariff.AgencyID,
		TariffID:    tariff.ID,
		Plan:        tariff.Plan,
		TotalAmount: totalAmount,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      domain.SubStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec := &domain.Transaction{
		ID:             domain.NewID(),
		ActorID:        userID,
		Amount:         totalAmount,
		Type:           domain.TxTypeDebit,
		SourceWalletID: wallet.ID,
		Cause:          fmt.Sprintf("%s subscription (%d month(s)) with %s", tariff.Plan, months, agency.Name),
		CreatedAt:      now,
	}

	if err := s.subs.CreatePaid(ctx, sub, rec, wallet.ID, agency.OwnerUserID, client.ID); err != nil {
		return nil, err
	}

	s.notify(ctx, userID,
		fmt.Sprintf("Your %s subscription with %s is active until %s.", tariff.Plan, agency.Name, endDate.Format("2006-01-02")),
		domain.NotifSubscriptionCreated)
	s.notify(ctx, agency.OwnerUserID,
		fmt.Sprintf("New %s subscription: %d received for %d month(s).", tariff.Plan, totalAmount, months),
		domain.NotifSubscriptionCreated)

	return sub, nil
}

// ListByUser returns all subscriptions of a user.
func (s *SubscriptionService) ListByUser(ctx context.Context, userID string) ([]*domain.SubscriptionResponse, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}
	return subs, nil
}

// ListAll returns every subscription (admin only).
func (s *SubscriptionService) ListAll(ctx context.Context) ([]*domain.SubscriptionResponse, error) {
	subs, err := s.subs.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list subscriptions", err)
	}
	return subs, nil
}

func (s *SubscriptionService) notify(ctx context.Context, userID, message, kind string) {
	n := &domain.Notification{
		ID:        domain.NewID(),
		UserID:    userID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if err := s.notifs.Create(ctx, n); err != nil {
		log.Printf("[Subscription] failed to create notification for %s: %v", userID, err)
	}
}
