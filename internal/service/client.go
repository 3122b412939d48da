package service

import (
	"context"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/repository"
	"github.com/go-playground/validator/v10"
)

// ClientService manages client profiles and their QR stickers.
type ClientService struct {
	clients  *repository.ClientRepository
	zones    *repository.ZoneRepository
	validate *validator.Validate
}

// NewClientService creates a new ClientService.
func NewClientService(clients *repository.ClientRepository, zones *repository.ZoneRepository) *ClientService {
	return &ClientService{
		clients:  clients,
		zones:    zones,
		validate: validator.New(),
	}
}

// Enroll creates a client profile for a user and mints the QR token printed
// on the client's sticker. One profile per user.
func (s *ClientService) Enroll(ctx context.Context, userID string, req *domain.EnrollClientRequest) (*domain.Client, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	zoneID, err := s.resolveZone(ctx, req.ZoneID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	client := &domain.Client{
		ID:        domain.NewID(),
		UserID:    userID,
		Address:   req.Address,
		ZoneID:    zoneID,
		QRToken:   domain.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// GetByUser returns a user's client profile.
func (s *ClientService) GetByUser(ctx context.Context, userID string) (*domain.Client, error) {
	client, err := s.clients.FindByUser(ctx, userID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load client profile", err)
	}
	if client == nil {
		return nil, domain.ErrNotFound("client profile not found")
	}
	return client, nil
}

// Update changes a client's address and zone.
func (s *ClientService) Update(ctx context.Context, userID string, req *domain.UpdateClientRequest) (*domain.Client, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	client, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	zoneID, err := s.resolveZone(ctx, req.ZoneID)
	if err != nil {
		return nil, err
	}

	client.Address = req.Address
	client.ZoneID = zoneID
	client.UpdatedAt = time.Now()
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, domain.ErrInternal("failed to update client profile", err)
	}
	return client, nil
}

// History returns the client's subscription log, oldest first.
func (s *ClientService) History(ctx context.Context, userID string) ([]*domain.SubscriptionHistoryEntry, error) {
	client, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.clients.History(ctx, client.ID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load subscription history", err)
	}
	return entries, nil
}

func (s *ClientService) resolveZone(ctx context.Context, zoneID string) (*string, error) {
	if zoneID == "" {
		return nil, nil
	}
	zone, err := s.zones.FindByID(ctx, zoneID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load zone", err)
	}
	if zone == nil {
		return nil, domain.ErrNotFound("zone not found")
	}
	return &zoneID, nil
}
