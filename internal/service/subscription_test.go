package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/colectra/backend/internal/config"
	"github.com/colectra/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subFixture struct {
	wallets  *memWallets
	clients  *memClients
	subs     *memSubs
	tariffs  *memTariffs
	agencies *memAgencies
	notifs   *memNotifs
	svc      *SubscriptionService

	agency *domain.Agency
	tariff *domain.Tariff
	client *domain.Client
	wallet *domain.Wallet
}

func newSubFixture(t *testing.T, anchor string, balance int64) *subFixture {
	t.Helper()
	f := &subFixture{
		wallets:  newMemWallets(),
		clients:  newMemClients(),
		tariffs:  newMemTariffs(),
		agencies: newMemAgencies(),
		notifs:   &memNotifs{},
	}
	f.subs = newMemSubs(f.wallets, f.clients)
	f.agency = f.agencies.add("owner-1", "CleanCity")
	f.tariff = f.tariffs.add(f.agency.ID, 1000)
	f.client = f.clients.add("user-1")
	f.wallet = f.wallets.add("user-1", balance)
	f.svc = NewSubscriptionService(f.subs, f.tariffs, f.wallets, f.clients, f.agencies, f.notifs, anchor)
	return f
}

func TestSubscribeDebitsPayerCreditsAgency(t *testing.T) {
	f := newSubFixture(t, config.RenewalAnchorPayment, 5000)

	sub, err := f.svc.Create(context.Background(), "user-1", f.tariff.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(3000), sub.TotalAmount)
	assert.Equal(t, domain.SubStatusActive, sub.Status)
	assert.WithinDuration(t, time.Now().AddDate(0, 3, 0), sub.EndDate, time.Minute)

	assert.Equal(t, int64(2000), f.wallet.Balance)
	owner := f.wallets.byUser("owner-1")
	require.NotNil(t, owner)
	assert.Equal(t, int64(3000), owner.Balance)

	// One completed ledger record linking both wallets.
	require.Len(t, f.wallets.txs, 1)
	rec := f.wallets.txs[0]
	assert.Equal(t, domain.TxStatusCompleted, rec.Status)
	assert.Equal(t, f.wallet.ID, rec.SourceWalletID)
	assert.Equal(t, owner.ID, rec.DestWalletID)

	// Client is attached to the agency and on its roster.
	require.NotNil(t, f.client.SubscribedAgencyID)
	assert.Equal(t, f.agency.ID, *f.client.SubscribedAgencyID)
	assert.True(t, f.subs.roster[f.agency.ID][f.client.ID])

	// Both sides were notified.
	assert.Len(t, f.notifs.forUser("user-1"), 1)
	assert.Len(t, f.notifs.forUser("owner-1"), 1)
}

func TestSubscribeInsufficientFunds(t *testing.T) {
	f := newSubFixture(t, config.RenewalAnchorPayment, 1000)

	_, err := f.svc.Create(context.Background(), "user-1", f.tariff.ID, 2)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	// Nothing happened: balance, subscriptions, roster, notifications.
	assert.Equal(t, int64(1000), f.wallet.Balance)
	assert.Empty(t, f.subs.subs)
	assert.Empty(t, f.subs.roster[f.agency.ID])
	assert.Empty(t, f.notifs.notifs)
	assert.Nil(t, f.client.SubscribedAgencyID)
}

func TestSubscribeValidation(t *testing.T) {
	f := newSubFixture(t, config.RenewalAnchorPayment, 5000)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "user-1", f.tariff.ID, 0)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	_, err = f.svc.Create(ctx, "user-1", "missing-tariff", 1)
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	_, err = f.svc.Create(ctx, "no-profile", f.tariff.ID, 1)
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestRenewalChainsFromCurrentEnd(t *testing.T) {
	f := newSubFixture(t, config.RenewalAnchorPayment, 5000)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, "user-1", f.tariff.ID, 2)
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, "user-1", f.tariff.ID, 1)
	require.NoError(t, err)

	// Back-to-back: the renewal starts where the current one ends, and the
	// payment anchor counts its months from the payment instant.
	assert.Equal(t, first.EndDate, second.StartDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), second.EndDate, time.Minute)

	assert.Equal(t, int64(2000), f.wallet.Balance)
	assert.Equal(t, int64(3000), f.wallets.byUser("owner-1").Balance)
}

func TestRenewalPeriodAnchor(t *testing.T) {
	f := newSubFixture(t, config.RenewalAnchorPeriod, 5000)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, "user-1", f.tariff.ID, 2)
	require.NoError(t, err)

	second, err := f.svc.Create(ctx, "user-1", f.tariff.ID, 1)
	require.NoError(t, err)

	// The period anchor extends coverage from the chained start date.
	assert.Equal(t, first.EndDate, second.StartDate)
	assert.Equal(t, first.EndDate.AddDate(0, 1, 0), second.EndDate)
}

func TestListSubscriptions(t *testing.T) {
	f := newSubFixture(t, config.RenewalAnchorPayment, 5000)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "user-1", f.tariff.ID, 1)
	require.NoError(t, err)

	mine, err := f.svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := f.svc.ListByUser(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
