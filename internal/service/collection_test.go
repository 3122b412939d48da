package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectionFixture struct {
	rounds    *memRounds
	employees *memEmployees
	zones     *memZones
	clients   *memClients
	publisher *capturePublisher
	svc       *CollectionService

	agencyID  string
	zone      *domain.Zone
	collector *domain.Employee
}

func newCollectionFixture(t *testing.T) *collectionFixture {
	t.Helper()
	f := &collectionFixture{
		rounds:    newMemRounds(),
		employees: newMemEmployees(),
		zones:     newMemZones(),
		clients:   newMemClients(),
		publisher: &capturePublisher{},
		agencyID:  domain.NewID(),
	}
	f.zone = f.zones.add(f.agencyID)
	f.collector = f.employees.add(f.agencyID, "collector-user", domain.JobCollector)
	f.svc = NewCollectionService(f.rounds, f.employees, f.zones, f.clients, f.publisher)
	return f
}

func (f *collectionFixture) activeRound(t *testing.T) *domain.CollectionRound {
	t.Helper()
	round, err := f.svc.ScheduleRound(context.Background(), f.agencyID, &domain.CreateRoundRequest{
		ZoneID:      f.zone.ID,
		CollectorID: f.collector.ID,
		StartsAt:    time.Now(),
		EndsAt:      time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	round, err = f.svc.StartRound(context.Background(), f.agencyID, round.ID)
	require.NoError(t, err)
	return round
}

func TestScheduleRoundValidatesOwnership(t *testing.T) {
	f := newCollectionFixture(t)
	ctx := context.Background()
	req := &domain.CreateRoundRequest{
		ZoneID:      f.zone.ID,
		CollectorID: f.collector.ID,
		StartsAt:    time.Now(),
		EndsAt:      time.Now().Add(time.Hour),
	}

	round, err := f.svc.ScheduleRound(ctx, f.agencyID, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundStatusScheduled, round.Status)

	// Another agency cannot use this zone or collector.
	_, err = f.svc.ScheduleRound(ctx, "other-agency", req)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestScheduleRoundRejectsInactiveCollector(t *testing.T) {
	f := newCollectionFixture(t)
	f.collector.Active = false

	_, err := f.svc.ScheduleRound(context.Background(), f.agencyID, &domain.CreateRoundRequest{
		ZoneID:      f.zone.ID,
		CollectorID: f.collector.ID,
		StartsAt:    time.Now(),
		EndsAt:      time.Now().Add(time.Hour),
	})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestStartRoundOnlyFromScheduled(t *testing.T) {
	f := newCollectionFixture(t)
	round := f.activeRound(t)

	// Starting an already-active round conflicts.
	_, err := f.svc.StartRound(context.Background(), f.agencyID, round.ID)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Code)
}

func TestRecordScanPublishes(t *testing.T) {
	f := newCollectionFixture(t)
	round := f.activeRound(t)
	client := f.clients.add("client-user")

	scan, err := f.svc.RecordScan(context.Background(), "collector-user", round.ID, &domain.ScanRequest{
		QRToken: client.QRToken,
		Note:    "two bags",
	})
	require.NoError(t, err)
	assert.Equal(t, client.ID, scan.ClientID)
	assert.Equal(t, f.collector.ID, scan.CollectorID)

	require.Len(t, f.publisher.scans, 1)
	assert.Equal(t, f.agencyID, f.publisher.agencyIDs[0])
	assert.Equal(t, scan, f.publisher.scans[0])
}

func TestRecordScanDeduplicatesPerRound(t *testing.T) {
	f := newCollectionFixture(t)
	round := f.activeRound(t)
	client := f.clients.add("client-user")
	req := &domain.ScanRequest{QRToken: client.QRToken}
	ctx := context.Background()

	_, err := f.svc.RecordScan(ctx, "collector-user", round.ID, req)
	require.NoError(t, err)

	_, err = f.svc.RecordScan(ctx, "collector-user", round.ID, req)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Code)

	// The duplicate never reached the live feed.
	assert.Len(t, f.publisher.scans, 1)
}

func TestRecordScanGuards(t *testing.T) {
	f := newCollectionFixture(t)
	round := f.activeRound(t)
	client := f.clients.add("client-user")
	ctx := context.Background()

	// Unknown QR token.
	_, err := f.svc.RecordScan(ctx, "collector-user", round.ID, &domain.ScanRequest{QRToken: "bogus"})
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)

	// Not an employee of the round's agency.
	_, err = f.svc.RecordScan(ctx, "stranger", round.ID, &domain.ScanRequest{QRToken: client.QRToken})
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Code)

	// Round not active.
	f.rounds.rounds[round.ID].Status = domain.RoundStatusCompleted
	_, err = f.svc.RecordScan(ctx, "collector-user", round.ID, &domain.ScanRequest{QRToken: client.QRToken})
	appErr, ok = domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestListScansChecksAgency(t *testing.T) {
	f := newCollectionFixture(t)
	round := f.activeRound(t)
	client := f.clients.add("client-user")
	ctx := context.Background()

	_, err := f.svc.RecordScan(ctx, "collector-user", round.ID, &domain.ScanRequest{QRToken: client.QRToken})
	require.NoError(t, err)

	scans, err := f.svc.ListScans(ctx, f.agencyID, round.ID)
	require.NoError(t, err)
	assert.Len(t, scans, 1)

	_, err = f.svc.ListScans(ctx, "other-agency", round.ID)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}
