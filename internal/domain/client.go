package domain

import "time"

// Client is a household or business enrolled for waste pickup. QRToken is
// the opaque value printed on the client's QR sticker; collectors submit it
// when scanning. A client holds at most one active agency subscription at a
// time (SubscribedAgencyID is nil otherwise).
type Client struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Address            string    `json:"address"`
	ZoneID             *string   `json:"zoneId,omitempty"`
	QRToken            string    `json:"qrToken"`
	SubscribedAgencyID *string   `json:"subscribedAgencyId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// EnrollClientRequest is the validated input for creating a client profile.
type EnrollClientRequest struct {
	Address string `json:"address" validate:"required,min=3,max=255"`
	ZoneID  string `json:"zoneId" validate:"omitempty"`
}

// UpdateClientRequest is the validated input for updating a client profile.
type UpdateClientRequest struct {
	Address string `json:"address" validate:"required,min=3,max=255"`
	ZoneID  string `json:"zoneId" validate:"omitempty"`
}

// SubscriptionHistoryEntry is one append-only line in a client's
// subscription log.
type SubscriptionHistoryEntry struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
	Offer  string    `json:"offer"`
}
