package payment

// Gateway is the interface to an external payment provider used for wallet
// top-ups. The provider hosts the checkout page and calls our webhook when
// the payment settles.
type Gateway interface {
	// CreatePaymentLink creates a checkout session for topping up a wallet
	// and returns the URL to redirect the user to.
	CreatePaymentLink(userID, orderID string, amount int64) (string, error)
	// VerifySignature verifies a webhook payload signature.
	VerifySignature(payload []byte, signature string) bool
}

// Webhook payment statuses.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// MockGateway is a stand-in provider for development and tests. Every
// checkout succeeds and every signature verifies.
type MockGateway struct{}

// NewMockGateway creates a MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) CreatePaymentLink(userID, orderID string, amount int64) (string, error) {
	return "https://pay.example.com/checkout?order_id=" + orderID, nil
}

func (g *MockGateway) VerifySignature(payload []byte, signature string) bool {
	return true
}
