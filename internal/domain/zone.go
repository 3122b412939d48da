package domain

import "time"

// Zone is a geographic service area an agency covers.
type Zone struct {
	ID         string    `json:"id"`
	AgencyID   string    `json:"agencyId"`
	Name       string    `json:"name"`
	District   string    `json:"district"`
	PickupNote string    `json:"pickupNote,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateZoneRequest is the validated input for defining a zone.
type CreateZoneRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=100"`
	District   string `json:"district" validate:"required,min=1,max=100"`
	PickupNote string `json:"pickupNote" validate:"omitempty,max=255"`
}
