package domain

import "time"

// WalletKindStandard is the only wallet kind currently issued.
const WalletKindStandard = "standard"

// Wallet is a per-user stored-value balance, in minor currency units.
// At most one wallet exists per user; the balance is mutated only through
// ledger transfers.
type Wallet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Balance   int64     `json:"balance"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Transaction types.
const (
	TxTypeDebit  = "debit"
	TxTypeCredit = "credit"
)

// Transaction statuses. A row is inserted pending and flipped to completed
// inside the same database transaction as the balance updates, so readers
// only ever observe completed rows; failed is reserved.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction is the append-only audit record of one ledger movement
// between two wallets. SourceWalletID is empty for external top-ups.
type Transaction struct {
	ID             string    `json:"id"`
	ActorID        string    `json:"actorId"`
	Amount         int64     `json:"amount"`
	Type           string    `json:"type"`
	SourceWalletID string    `json:"sourceWalletId,omitempty"`
	DestWalletID   string    `json:"destWalletId"`
	Status         string    `json:"status"`
	Cause          string    `json:"cause,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TransferRequest is the validated input for a generic ledger operation.
// A debit moves Amount from the source wallet to the destination wallet;
// a credit mirrors it (destination pays the source), so both payment and
// refund flows reuse the same primitive.
type TransferRequest struct {
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	Type           string `json:"type" validate:"required,oneof=credit debit"`
	SourceWalletID string `json:"sourceWalletId" validate:"required"`
	DestWalletID   string `json:"destWalletId" validate:"required"`
	Cause          string `json:"cause" validate:"omitempty,max=255"`
}

// TopUpRequest is the validated input for starting a wallet top-up through
// the external payment gateway.
type TopUpRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// PaymentLinkResponse returns the URL to redirect the user to for payment.
type PaymentLinkResponse struct {
	PaymentURL string `json:"paymentUrl"`
	OrderID    string `json:"orderId"`
}
