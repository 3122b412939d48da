package domain

import "time"

// Tariff plan types.
const (
	PlanStandard   = "standard"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

// Tariff is an agency-defined price plan purchasable as a subscription.
// Price is a monthly amount in minor currency units.
type Tariff struct {
	ID             string    `json:"id"`
	AgencyID       string    `json:"agencyId"`
	Label          string    `json:"label"`
	Plan           string    `json:"plan"`
	Price          int64     `json:"price"`
	PassesPerMonth int       `json:"passesPerMonth,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateTariffRequest is the validated input for publishing a tariff.
type CreateTariffRequest struct {
	Label          string `json:"label" validate:"required,min=1,max=100"`
	Plan           string `json:"plan" validate:"required,oneof=standard premium enterprise"`
	Price          int64  `json:"price" validate:"required,gt=0"`
	PassesPerMonth int    `json:"passesPerMonth" validate:"omitempty,gte=0,lte=31"`
	Description    string `json:"description" validate:"omitempty,max=500"`
}
