package domain

import "time"

// Agency is a waste-collection operator. Its client roster lives in the
// agency_clients membership set, kept consistent with active subscriptions.
type Agency struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"ownerUserId"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateAgencyRequest is the validated input for registering an agency.
type CreateAgencyRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	City  string `json:"city" validate:"required,min=1,max=100"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

// Employee jobs.
const (
	JobCollector  = "collector"
	JobSupervisor = "supervisor"
)

// Employee links a user to an agency with a job. Collectors run collection
// rounds and submit QR scans.
type Employee struct {
	ID        string    `json:"id"`
	AgencyID  string    `json:"agencyId"`
	UserID    string    `json:"userId"`
	Job       string    `json:"job"`
	ZoneID    *string   `json:"zoneId,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateEmployeeRequest is the validated input for hiring an employee.
type CreateEmployeeRequest struct {
	UserID string `json:"userId" validate:"required"`
	Job    string `json:"job" validate:"required,oneof=collector supervisor"`
	ZoneID string `json:"zoneId" validate:"omitempty"`
}
