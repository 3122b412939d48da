package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepFixture struct {
	wallets *memWallets
	clients *memClients
	subs    *memSubs
	notifs  *memNotifs
	rounds  *memRounds
	kv      *memKV
	sweeper *Sweeper
}

func newSweepFixture(t *testing.T, warnDays int) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		wallets: newMemWallets(),
		clients: newMemClients(),
		notifs:  &memNotifs{},
		rounds:  newMemRounds(),
		kv:      newMemKV(),
	}
	f.subs = newMemSubs(f.wallets, f.clients)
	f.sweeper = NewSweeper(f.subs, f.notifs, f.rounds, f.kv, "@every 1h", warnDays)
	return f
}

// addSub seeds an active subscription ending at the given time, with the
// client attached to the agency the way a paid purchase leaves them.
func (f *sweepFixture) addSub(userID, agencyID string, end time.Time) *domain.Subscription {
	client := f.clients.add(userID)
	client.SubscribedAgencyID = &agencyID
	if f.subs.roster[agencyID] == nil {
		f.subs.roster[agencyID] = make(map[string]bool)
	}
	f.subs.roster[agencyID][client.ID] = true

	sub := &domain.Subscription{
		ID:        domain.NewID(),
		UserID:    userID,
		AgencyID:  agencyID,
		Plan:      domain.PlanStandard,
		StartDate: end.AddDate(0, -1, 0),
		EndDate:   end,
		Status:    domain.SubStatusActive,
	}
	f.subs.subs[sub.ID] = sub
	return sub
}

func TestSweepWarnsExpiringOnce(t *testing.T) {
	f := newSweepFixture(t, 2)
	s := f.addSub("user-1", "agency-1", time.Now().Add(24*time.Hour))

	f.sweeper.Run(context.Background())

	notifs := f.notifs.forUser("user-1")
	require.Len(t, notifs, 1)
	assert.Equal(t, domain.NotifSubscriptionExpiring, notifs[0].Kind)
	assert.True(t, f.subs.subs[s.ID].RenewalNotified)

	// A second run must not warn again.
	f.sweeper.Run(context.Background())
	assert.Len(t, f.notifs.forUser("user-1"), 1)
}

func TestSweepIgnoresDistantExpiry(t *testing.T) {
	f := newSweepFixture(t, 2)
	s := f.addSub("user-1", "agency-1", time.Now().AddDate(0, 1, 0))

	f.sweeper.Run(context.Background())

	assert.Empty(t, f.notifs.notifs)
	assert.False(t, f.subs.subs[s.ID].RenewalNotified)
	assert.Equal(t, domain.SubStatusActive, f.subs.subs[s.ID].Status)
}

func TestSweepExpiresPastDue(t *testing.T) {
	f := newSweepFixture(t, 2)
	s := f.addSub("user-1", "agency-1", time.Now().Add(-time.Hour))
	client, _ := f.clients.FindByUser(context.Background(), "user-1")

	f.sweeper.Run(context.Background())

	assert.Equal(t, domain.SubStatusCanceled, f.subs.subs[s.ID].Status)
	assert.Nil(t, client.SubscribedAgencyID)
	assert.Empty(t, f.subs.roster["agency-1"])

	notifs := f.notifs.forUser("user-1")
	require.Len(t, notifs, 1)
	assert.Equal(t, domain.NotifSubscriptionExpired, notifs[0].Kind)
}

func TestSweepExpiresWithMissingClient(t *testing.T) {
	f := newSweepFixture(t, 2)
	orphan := f.addSub("user-1", "agency-1", time.Now().Add(-time.Hour))
	other := f.addSub("user-2", "agency-1", time.Now().Add(-time.Hour))

	// The client profile was deleted out from under the subscription.
	for id, c := range f.clients.clients {
		if c.UserID == "user-1" {
			delete(f.clients.clients, id)
		}
	}

	f.sweeper.Run(context.Background())

	assert.Equal(t, domain.SubStatusCanceled, f.subs.subs[orphan.ID].Status)
	assert.Equal(t, domain.SubStatusCanceled, f.subs.subs[other.ID].Status)
	require.Len(t, f.notifs.forUser("user-1"), 1)
	require.Len(t, f.notifs.forUser("user-2"), 1)
}

func TestSweepContinuesAfterFailure(t *testing.T) {
	f := newSweepFixture(t, 2)
	bad := f.addSub("user-1", "agency-1", time.Now().Add(-time.Hour))
	good := f.addSub("user-2", "agency-1", time.Now().Add(-time.Hour))
	f.subs.expireErr[bad.ID] = errors.New("deadlock detected")

	f.sweeper.Run(context.Background())

	// The failing subscription is left for the next run; the rest of the
	// sweep still happens.
	assert.Equal(t, domain.SubStatusActive, f.subs.subs[bad.ID].Status)
	assert.Equal(t, domain.SubStatusCanceled, f.subs.subs[good.ID].Status)
	assert.Empty(t, f.notifs.forUser("user-1"))
	assert.Len(t, f.notifs.forUser("user-2"), 1)
}

func TestSweepWarnFailureSkipsMark(t *testing.T) {
	f := newSweepFixture(t, 2)
	s := f.addSub("user-1", "agency-1", time.Now().Add(24*time.Hour))
	f.notifs.failErr = errors.New("connection refused")

	f.sweeper.Run(context.Background())
	assert.False(t, f.subs.subs[s.ID].RenewalNotified)

	// Once notifications recover, the warning goes out.
	f.notifs.failErr = nil
	f.sweeper.Run(context.Background())
	assert.True(t, f.subs.subs[s.ID].RenewalNotified)
	assert.Len(t, f.notifs.forUser("user-1"), 1)
}

func TestSweepClosesFinishedRounds(t *testing.T) {
	f := newSweepFixture(t, 2)
	finished := &domain.CollectionRound{
		ID:       domain.NewID(),
		AgencyID: "agency-1",
		Status:   domain.RoundStatusActive,
		EndsAt:   time.Now().Add(-time.Minute),
	}
	running := &domain.CollectionRound{
		ID:       domain.NewID(),
		AgencyID: "agency-1",
		Status:   domain.RoundStatusActive,
		EndsAt:   time.Now().Add(time.Hour),
	}
	f.rounds.rounds[finished.ID] = finished
	f.rounds.rounds[running.ID] = running

	f.sweeper.Run(context.Background())

	assert.Equal(t, domain.RoundStatusCompleted, finished.Status)
	assert.Equal(t, domain.RoundStatusActive, running.Status)
}

func TestSweepPurgesExpiredKV(t *testing.T) {
	f := newSweepFixture(t, 2)
	f.sweeper.Run(context.Background())
	assert.Equal(t, 1, f.kv.purged)
}

// gatedPurger stalls the purge step until released, holding a sweep
// mid-flight.
type gatedPurger struct {
	inner   *memKV
	release chan struct{}
}

func (p *gatedPurger) PurgeExpired(ctx context.Context) error {
	<-p.release
	return p.inner.PurgeExpired(ctx)
}

func TestStopWaitsForStartupSweep(t *testing.T) {
	kv := newMemKV()
	gate := &gatedPurger{inner: kv, release: make(chan struct{})}
	subs := newMemSubs(newMemWallets(), newMemClients())
	sweeper := NewSweeper(subs, &memNotifs{}, newMemRounds(), gate, "@every 1h", 2)
	require.NoError(t, sweeper.Start())

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(gate.release)
	}()

	// Stop must not return while the startup sweep is still running.
	sweeper.Stop()
	assert.Equal(t, 1, kv.purged)
}
