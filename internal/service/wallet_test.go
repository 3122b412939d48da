package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletService(wallets *memWallets, notifs *memNotifs) *WalletService {
	return NewWalletService(wallets, notifs, payment.NewMockGateway())
}

func TestWalletCreate(t *testing.T) {
	wallets := newMemWallets()
	svc := newWalletService(wallets, &memNotifs{})
	ctx := context.Background()

	w, err := svc.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, domain.WalletKindStandard, w.Kind)

	_, err = svc.Create(ctx, "user-1")
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestTransferDebit(t *testing.T) {
	wallets := newMemWallets()
	a := wallets.add("alice", 5000)
	b := wallets.add("bob", 0)
	svc := newWalletService(wallets, &memNotifs{})

	rec, err := svc.Transfer(context.Background(), "alice", &domain.TransferRequest{
		Amount:         2000,
		Type:           domain.TxTypeDebit,
		SourceWalletID: a.ID,
		DestWalletID:   b.ID,
		Cause:          "pickup fee",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3000), a.Balance)
	assert.Equal(t, int64(2000), b.Balance)
	assert.Equal(t, domain.TxStatusCompleted, rec.Status)
	require.Len(t, wallets.txs, 1)

	// Money is conserved: the two balance changes sum to zero.
	assert.Equal(t, int64(5000), a.Balance+b.Balance)
}

func TestTransferCreditMirrorsDebit(t *testing.T) {
	wallets := newMemWallets()
	a := wallets.add("alice", 1000)
	b := wallets.add("bob", 4000)
	svc := newWalletService(wallets, &memNotifs{})

	// A credit makes the destination wallet pay the source: a refund.
	_, err := svc.Transfer(context.Background(), "bob", &domain.TransferRequest{
		Amount:         500,
		Type:           domain.TxTypeCredit,
		SourceWalletID: a.ID,
		DestWalletID:   b.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), a.Balance)
	assert.Equal(t, int64(3500), b.Balance)
}

func TestTransferInsufficientFunds(t *testing.T) {
	wallets := newMemWallets()
	a := wallets.add("alice", 100)
	b := wallets.add("bob", 50)
	svc := newWalletService(wallets, &memNotifs{})

	_, err := svc.Transfer(context.Background(), "alice", &domain.TransferRequest{
		Amount:         200,
		Type:           domain.TxTypeDebit,
		SourceWalletID: a.ID,
		DestWalletID:   b.ID,
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	// Nothing moved and no ledger record was produced.
	assert.Equal(t, int64(100), a.Balance)
	assert.Equal(t, int64(50), b.Balance)
	assert.Empty(t, wallets.txs)
}

func TestTransferRejectsSameWallet(t *testing.T) {
	wallets := newMemWallets()
	a := wallets.add("alice", 1000)
	svc := newWalletService(wallets, &memNotifs{})

	_, err := svc.Transfer(context.Background(), "alice", &domain.TransferRequest{
		Amount:         100,
		Type:           domain.TxTypeDebit,
		SourceWalletID: a.ID,
		DestWalletID:   a.ID,
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestTransferUnknownWallet(t *testing.T) {
	wallets := newMemWallets()
	a := wallets.add("alice", 1000)
	svc := newWalletService(wallets, &memNotifs{})

	_, err := svc.Transfer(context.Background(), "alice", &domain.TransferRequest{
		Amount:         100,
		Type:           domain.TxTypeDebit,
		SourceWalletID: a.ID,
		DestWalletID:   "nope",
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	assert.Equal(t, int64(1000), a.Balance)
}

func TestPaymentWebhookCreditsWallet(t *testing.T) {
	wallets := newMemWallets()
	w := wallets.add("alice", 250)
	notifs := &memNotifs{}
	svc := newWalletService(wallets, notifs)
	ctx := context.Background()

	require.NoError(t, svc.HandlePaymentWebhook(ctx, "alice", 1000, payment.StatusSuccess))
	assert.Equal(t, int64(1250), w.Balance)
	require.Len(t, wallets.txs, 1)
	assert.Empty(t, wallets.txs[0].SourceWalletID)
	assert.Equal(t, domain.TxTypeCredit, wallets.txs[0].Type)

	require.Len(t, notifs.forUser("alice"), 1)
	assert.Equal(t, domain.NotifPaymentReceived, notifs.forUser("alice")[0].Kind)

	// Non-success callbacks are ignored without touching the balance.
	require.NoError(t, svc.HandlePaymentWebhook(ctx, "alice", 9999, payment.StatusFailed))
	assert.Equal(t, int64(1250), w.Balance)
}

func TestListTransactionsScopedToWallet(t *testing.T) {
	wallets := newMemWallets()
	a := wallets.add("alice", 5000)
	b := wallets.add("bob", 5000)
	c := wallets.add("carol", 5000)
	svc := newWalletService(wallets, &memNotifs{})
	ctx := context.Background()

	_, err := svc.Transfer(ctx, "alice", &domain.TransferRequest{
		Amount: 100, Type: domain.TxTypeDebit, SourceWalletID: a.ID, DestWalletID: b.ID,
	})
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, "bob", &domain.TransferRequest{
		Amount: 200, Type: domain.TxTypeDebit, SourceWalletID: b.ID, DestWalletID: c.ID,
	})
	require.NoError(t, err)

	txs, err := svc.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	txs, err = svc.ListTransactions(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}
