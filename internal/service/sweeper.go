package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/robfig/cron/v3"
)

// RoundCloser deactivates collection rounds whose window has passed.
type RoundCloser interface {
	DeactivateFinished(ctx context.Context, now time.Time) (int64, error)
}

// KVPurger drops expired key-value entries (revoked-token records past
// their TTL).
type KVPurger interface {
	PurgeExpired(ctx context.Context) error
}

// Sweeper is the periodic background task that warns about subscriptions
// ending soon, cancels expired ones, and closes finished collection rounds.
// It shares the database pool with request handlers but runs on its own
// cron schedule and its own context.
type Sweeper struct {
	subs       SubscriptionStore
	notifs     NotificationStore
	rounds     RoundCloser
	kv         KVPurger
	warnWindow time.Duration
	schedule   string
	cron       *cron.Cron
	startup    sync.WaitGroup
}

// NewSweeper creates a new Sweeper. schedule is a cron spec (e.g.
// "@every 1h"); warnDays is how many days before expiry the renewal
// warning fires.
func NewSweeper(subs SubscriptionStore, notifs NotificationStore, rounds RoundCloser, kv KVPurger, schedule string, warnDays int) *Sweeper {
	return &Sweeper{
		subs:       subs,
		notifs:     notifs,
		rounds:     rounds,
		kv:         kv,
		warnWindow: time.Duration(warnDays) * 24 * time.Hour,
		schedule:   schedule,
		cron:       cron.New(),
	}
}

// Start runs one sweep immediately, then on every cron tick.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule sweeper: %w", err)
	}
	// The startup sweep runs outside cron's job tracking, so Stop has to
	// wait on it separately.
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.Run(context.Background())
	}()
	s.cron.Start()
	log.Printf("[Sweeper] started (schedule %q)", s.schedule)
	return nil
}

// Stop halts the schedule and waits for any running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
}

// Run executes one full sweep. Failures on individual subscriptions are
// logged and never abort the rest of the run.
func (s *Sweeper) Run(ctx context.Context) {
	now := time.Now()
	s.sweepExpiring(ctx, now)
	s.sweepExpired(ctx, now)
	s.closeRounds(ctx, now)
	if err := s.kv.PurgeExpired(ctx); err != nil {
		log.Printf("[Sweeper] failed to purge expired kv entries: %v", err)
	}
}

// sweepExpiring warns users whose active subscription ends inside the warn
// window. Each subscription is warned exactly once: the renewal_notified
// flag is set with the notification so later runs skip it.
func (s *Sweeper) sweepExpiring(ctx context.Context, now time.Time) {
	subs, err := s.subs.ListExpiring(ctx, now, now.Add(s.warnWindow))
	if err != nil {
		log.Printf("[Sweeper] failed to list expiring subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		msg := fmt.Sprintf("Your %s subscription ends on %s. Renew to keep your pickups.",
			sub.Plan, sub.EndDate.Format("2006-01-02"))
		if err := s.notify(ctx, sub.UserID, msg, domain.NotifSubscriptionExpiring); err != nil {
			log.Printf("[Sweeper] failed to warn user %s: %v", sub.UserID, err)
			continue
		}
		if err := s.subs.MarkRenewalNotified(ctx, sub.ID); err != nil {
			log.Printf("[Sweeper] failed to mark subscription %s notified: %v", sub.ID, err)
		}
	}
}

// sweepExpired cancels active subscriptions past their end date and
// detaches the client from the agency.
func (s *Sweeper) sweepExpired(ctx context.Context, now time.Time) {
	subs, err := s.subs.ListExpired(ctx, now)
	if err != nil {
		log.Printf("[Sweeper] failed to list expired subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		if err := s.subs.Expire(ctx, sub); err != nil {
			log.Printf("[Sweeper] failed to expire subscription %s: %v", sub.ID, err)
			continue
		}
		msg := fmt.Sprintf("Your %s subscription expired on %s.", sub.Plan, sub.EndDate.Format("2006-01-02"))
		if err := s.notify(ctx, sub.UserID, msg, domain.NotifSubscriptionExpired); err != nil {
			log.Printf("[Sweeper] failed to notify user %s: %v", sub.UserID, err)
		}
	}
}

// closeRounds marks active collection rounds past their end time completed.
func (s *Sweeper) closeRounds(ctx context.Context, now time.Time) {
	n, err := s.rounds.DeactivateFinished(ctx, now)
	if err != nil {
		log.Printf("[Sweeper] failed to deactivate rounds: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[Sweeper] completed %d finished round(s)", n)
	}
}

func (s *Sweeper) notify(ctx context.Context, userID, message, kind string) error {
	return s.notifs.Create(ctx, &domain.Notification{
		ID:        domain.NewID(),
		UserID:    userID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	})
}
