package service

import (
	"context"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/go-playground/validator/v10"
)

// CollectionStore is the persistence surface CollectionService needs.
type CollectionStore interface {
	CreateRound(ctx context.Context, round *domain.CollectionRound) error
	FindRound(ctx context.Context, id string) (*domain.CollectionRound, error)
	ListRoundsByAgency(ctx context.Context, agencyID string) ([]*domain.CollectionRound, error)
	UpdateRoundStatus(ctx context.Context, id, from, to string) (bool, error)
	CreateScan(ctx context.Context, s *domain.CollectionScan) error
	ListScansByRound(ctx context.Context, roundID string) ([]*domain.CollectionScan, error)
}

// EmployeeStore resolves employees.
type EmployeeStore interface {
	FindByID(ctx context.Context, id string) (*domain.Employee, error)
	FindByUserAndAgency(ctx context.Context, userID, agencyID string) (*domain.Employee, error)
}

// ZoneStore resolves zones.
type ZoneStore interface {
	FindByID(ctx context.Context, id string) (*domain.Zone, error)
}

// QRResolver resolves the client behind a scanned QR token.
type QRResolver interface {
	FindByQRToken(ctx context.Context, token string) (*domain.Client, error)
}

// ScanPublisher pushes scans to live subscribers (the WebSocket feed).
type ScanPublisher interface {
	PublishScan(agencyID string, scan *domain.CollectionScan)
}

// CollectionService handles round scheduling and the QR scan workflow.
type CollectionService struct {
	store     CollectionStore
	employees EmployeeStore
	zones     ZoneStore
	clients   QRResolver
	publisher ScanPublisher // optional
	validate  *validator.Validate
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(store CollectionStore, employees EmployeeStore, zones ZoneStore, clients QRResolver, publisher ScanPublisher) *CollectionService {
	return &CollectionService{
		store:     store,
		employees: employees,
		zones:     zones,
		clients:   clients,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// ScheduleRound plans a collection round through a zone with an assigned
// collector. Zone and collector must belong to the agency.
func (s *CollectionService) ScheduleRound(ctx context.Context, agencyID string, req *domain.CreateRoundRequest) (*domain.CollectionRound, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	zone, err := s.zones.FindByID(ctx, req.ZoneID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load zone", err)
	}
	if zone == nil || zone.AgencyID != agencyID {
		return nil, domain.ErrNotFound("zone not found")
	}

	collector, err := s.employees.FindByID(ctx, req.CollectorID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load collector", err)
	}
	if collector == nil || collector.AgencyID != agencyID {
		return nil, domain.ErrNotFound("collector not found")
	}
	if collector.Job != domain.JobCollector || !collector.Active {
		return nil, domain.ErrBadRequest("employee is not an active collector")
	}

	round := &domain.CollectionRound{
		ID:          domain.NewID(),
		AgencyID:    agencyID,
		ZoneID:      req.ZoneID,
		CollectorID: req.CollectorID,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      domain.RoundStatusScheduled,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateRound(ctx, round); err != nil {
		return nil, domain.ErrInternal("failed to create round", err)
	}
	return round, nil
}

// StartRound activates a scheduled round.
func (s *CollectionService) StartRound(ctx context.Context, agencyID, roundID string) (*domain.CollectionRound, error) {
	round, err := s.store.FindRound(ctx, roundID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load round", err)
	}
	if round == nil || round.AgencyID != agencyID {
		return nil, domain.ErrNotFound("round not found")
	}

	ok, err := s.store.UpdateRoundStatus(ctx, roundID, domain.RoundStatusScheduled, domain.RoundStatusActive)
	if err != nil {
		return nil, domain.ErrInternal("failed to start round", err)
	}
	if !ok {
		return nil, domain.ErrConflict("round is not in scheduled state")
	}
	round.Status = domain.RoundStatusActive
	return round, nil
}

// ListRounds returns an agency's rounds.
func (s *CollectionService) ListRounds(ctx context.Context, agencyID string) ([]*domain.CollectionRound, error) {
	rounds, err := s.store.ListRoundsByAgency(ctx, agencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list rounds", err)
	}
	return rounds, nil
}

// RecordScan registers a collector's QR scan of a client sticker during an
// active round. A client can be scanned at most once per round. The scan is
// pushed to the agency's live feed after it is persisted.
func (s *CollectionService) RecordScan(ctx context.Context, collectorUserID, roundID string, req *domain.ScanRequest) (*domain.CollectionScan, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	round, err := s.store.FindRound(ctx, roundID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load round", err)
	}
	if round == nil {
		return nil, domain.ErrNotFound("round not found")
	}
	if round.Status != domain.RoundStatusActive {
		return nil, domain.ErrBadRequest("round is not active")
	}

	collector, err := s.employees.FindByUserAndAgency(ctx, collectorUserID, round.AgencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load collector", err)
	}
	if collector == nil || !collector.Active {
		return nil, domain.ErrForbidden("not a collector of this agency")
	}

	client, err := s.clients.FindByQRToken(ctx, req.QRToken)
	if err != nil {
		return nil, domain.ErrInternal("failed to resolve QR token", err)
	}
	if client == nil {
		return nil, domain.ErrNotFound("unknown QR code")
	}

	scan := &domain.CollectionScan{
		ID:          domain.NewID(),
		RoundID:     roundID,
		ClientID:    client.ID,
		CollectorID: collector.ID,
		ScannedAt:   time.Now(),
		Note:        req.Note,
	}
	if err := s.store.CreateScan(ctx, scan); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishScan(round.AgencyID, scan)
	}
	return scan, nil
}

// ListScans returns the scans recorded during a round.
func (s *CollectionService) ListScans(ctx context.Context, agencyID, roundID string) ([]*domain.CollectionScan, error) {
	round, err := s.store.FindRound(ctx, roundID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load round", err)
	}
	if round == nil || round.AgencyID != agencyID {
		return nil, domain.ErrNotFound("round not found")
	}
	scans, err := s.store.ListScansByRound(ctx, roundID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list scans", err)
	}
	return scans, nil
}
