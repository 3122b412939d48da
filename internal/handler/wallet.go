package handler

import (
	"io"
	"net/http"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
	"github.com/colectra/backend/pkg/payment"
)

// WalletHandler handles wallet and ledger HTTP endpoints.
type WalletHandler struct {
	wallets *service.WalletService
	gateway payment.Gateway
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets *service.WalletService, gateway payment.Gateway) *WalletHandler {
	return &WalletHandler{wallets: wallets, gateway: gateway}
}

// Create handles POST /api/wallet.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.Create(r.Context(), userID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, wallet)
}

// Get handles GET /api/wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.wallets.GetByUser(r.Context(), userID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, wallet)
}

// Transfer handles POST /api/transactions.
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	rec, err := h.wallets.Transfer(r.Context(), userID(r), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, rec)
}

// Transactions handles GET /api/wallet/transactions.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.wallets.ListTransactions(r.Context(), userID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, txs)
}

// TopUp handles POST /api/wallet/topup and returns the checkout link.
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req domain.TopUpRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	link, err := h.wallets.CreateTopUp(r.Context(), userID(r), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, link)
}

// paymentWebhookPayload is the gateway's settlement callback body.
type paymentWebhookPayload struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

// PaymentWebhook handles POST /api/webhooks/payment. Unauthenticated; the
// payload signature is verified against the gateway instead.
func (h *WalletHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		Error(w, domain.ErrBadRequest("failed to read body"))
		return
	}
	if !h.gateway.VerifySignature(body, r.Header.Get("X-Signature")) {
		Error(w, domain.ErrUnauthorized("invalid webhook signature"))
		return
	}

	var payload paymentWebhookPayload
	if err := unmarshalJSON(body, &payload); err != nil {
		Error(w, err)
		return
	}

	if err := h.wallets.HandlePaymentWebhook(r.Context(), payload.UserID, payload.Amount, payload.Status); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
