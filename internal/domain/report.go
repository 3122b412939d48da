package domain

import "time"

// Report kinds.
const (
	ReportMissedPickup = "missed_pickup"
	ReportIllegalDump  = "illegal_dump"
	ReportBilling      = "billing"
	ReportOther        = "other"
)

// Report statuses.
const (
	ReportStatusOpen       = "open"
	ReportStatusInProgress = "in_progress"
	ReportStatusResolved   = "resolved"
)

// Report is an issue logged by a user against an agency.
type Report struct {
	ID         string    `json:"id"`
	ReporterID string    `json:"reporterId"`
	AgencyID   string    `json:"agencyId"`
	Kind       string    `json:"kind"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateReportRequest is the validated input for filing a report.
type CreateReportRequest struct {
	AgencyID string `json:"agencyId" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=missed_pickup illegal_dump billing other"`
	Subject  string `json:"subject" validate:"required,min=3,max=150"`
	Body     string `json:"body" validate:"omitempty,max=2000"`
}

// UpdateReportStatusRequest is the validated input for moving a report
// through its workflow.
type UpdateReportStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved"`
}
