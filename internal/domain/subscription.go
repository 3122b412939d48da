package domain

import "time"

// Subscription statuses. The only driven transition is active → canceled
// (terminal, applied by the expiry sweeper); inactive is reserved.
const (
	SubStatusActive   = "active"
	SubStatusInactive = "inactive"
	SubStatusCanceled = "canceled"
)

// Subscription is a time-bounded entitlement linking a client to an agency
// under a tariff. Never physically deleted. RenewalNotified dedupes the
// expiring-soon warning so the sweeper does not re-notify every run.
type Subscription struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	AgencyID        string    `json:"agencyId"`
	TariffID        string    `json:"tariffId"`
	Plan            string    `json:"plan"`
	TotalAmount     int64     `json:"totalAmount"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Status          string    `json:"status"`
	RenewalNotified bool      `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SubscriptionResponse is a subscription populated with agency and user
// summary fields for listing endpoints.
type SubscriptionResponse struct {
	Subscription
	AgencyName string `json:"agencyName,omitempty"`
	UserName   string `json:"userName,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
}
