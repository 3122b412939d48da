package domain

import "time"

// Collection round statuses. Scheduled rounds are started by the agency;
// the sweeper marks active rounds past their end time as completed.
const (
	RoundStatusScheduled = "scheduled"
	RoundStatusActive    = "active"
	RoundStatusCompleted = "completed"
)

// CollectionRound is one planned pickup run through a zone by a collector.
type CollectionRound struct {
	ID          string    `json:"id"`
	AgencyID    string    `json:"agencyId"`
	ZoneID      string    `json:"zoneId"`
	CollectorID string    `json:"collectorId"` // employee id
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRoundRequest is the validated input for scheduling a round.
type CreateRoundRequest struct {
	ZoneID      string    `json:"zoneId" validate:"required"`
	CollectorID string    `json:"collectorId" validate:"required"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

// CollectionScan records one QR scan of a client's sticker during a round.
// At most one scan per (round, client) pair.
type CollectionScan struct {
	ID          string    `json:"id"`
	RoundID     string    `json:"roundId"`
	ClientID    string    `json:"clientId"`
	CollectorID string    `json:"collectorId"`
	ScannedAt   time.Time `json:"scannedAt"`
	Note        string    `json:"note,omitempty"`
}

// ScanRequest is the validated input a collector submits after scanning a
// client QR sticker.
type ScanRequest struct {
	QRToken string `json:"qrToken" validate:"required"`
	Note    string `json:"note" validate:"omitempty,max=255"`
}
