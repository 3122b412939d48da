package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/repository"
	"github.com/go-playground/validator/v10"
)

// ReportService handles issue reports filed against agencies.
type ReportService struct {
	reports  *repository.ReportRepository
	agencies *repository.AgencyRepository
	notifs   NotificationStore
	validate *validator.Validate
}

// NewReportService creates a new ReportService.
func NewReportService(reports *repository.ReportRepository, agencies *repository.AgencyRepository, notifs NotificationStore) *ReportService {
	return &ReportService{
		reports:  reports,
		agencies: agencies,
		notifs:   notifs,
		validate: validator.New(),
	}
}

// Create files a report against an agency.
func (s *ReportService) Create(ctx context.Context, reporterID string, req *domain.CreateReportRequest) (*domain.Report, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	agency, err := s.agencies.FindByID(ctx, req.AgencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load agency", err)
	}
	if agency == nil {
		return nil, domain.ErrNotFound("agency not found")
	}

	now := time.Now()
	report := &domain.Report{
		ID:         domain.NewID(),
		ReporterID: reporterID,
		AgencyID:   req.AgencyID,
		Kind:       req.Kind,
		Subject:    req.Subject,
		Body:       req.Body,
		Status:     domain.ReportStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, domain.ErrInternal("failed to create report", err)
	}
	return report, nil
}

// ListByAgency returns an agency's reports, newest first.
func (s *ReportService) ListByAgency(ctx context.Context, agencyID string) ([]*domain.Report, error) {
	reports, err := s.reports.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list reports", err)
	}
	return reports, nil
}

// UpdateStatus moves a report through its workflow and notifies the
// reporter.
func (s *ReportService) UpdateStatus(ctx context.Context, agencyID, reportID string, req *domain.UpdateReportStatusRequest) (*domain.Report, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load report", err)
	}
	if report == nil || report.AgencyID != agencyID {
		return nil, domain.ErrNotFound("report not found")
	}

	if err := s.reports.UpdateStatus(ctx, reportID, req.Status); err != nil {
		return nil, domain.ErrInternal("failed to update report", err)
	}
	report.Status = req.Status
	report.UpdatedAt = time.Now()

	n := &domain.Notification{
		ID:        domain.NewID(),
		UserID:    report.ReporterID,
		Message:   fmt.Sprintf("Your report %q is now %s.", report.Subject, req.Status),
		Kind:      domain.NotifReportUpdate,
		CreatedAt: time.Now(),
	}
	if err := s.notifs.Create(ctx, n); err != nil {
		log.Printf("[Report] failed to notify reporter %s: %v", report.ReporterID, err)
	}
	return report, nil
}
