package domain

import "time"

// Notification kinds.
const (
	NotifSubscriptionCreated  = "subscription_created"
	NotifSubscriptionExpiring = "subscription_expiring"
	NotifSubscriptionExpired  = "subscription_expired"
	NotifPaymentReceived      = "payment_received"
	NotifReportUpdate         = "report_update"
)

// Notification is a stored side-effect record for a user. Delivery
// transports (email, push) are out of scope; clients poll their list.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
