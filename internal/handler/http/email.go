package http

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/febluxury/storefront/internal/notify"
	apperrors "github.com/febluxury/storefront/pkg/errors"
	"github.com/febluxury/storefront/pkg/httputil"
	"github.com/febluxury/storefront/pkg/validator"
)

// maxReceiptBytes caps the decoded receipt attachment.
const maxReceiptBytes = 5 << 20

// EmailHandler handles HTTP requests for transactional email.
type EmailHandler struct {
	receipts *notify.ReceiptSender
	logger   *slog.Logger
}

// NewEmailHandler creates a new email HTTP handler.
func NewEmailHandler(receipts *notify.ReceiptSender, logger *slog.Logger) *EmailHandler {
	return &EmailHandler{
		receipts: receipts,
		logger:   logger,
	}
}

// SendReceiptRequest is the JSON request body for a receipt email. Receipt
// is the base64-encoded PDF.
type SendReceiptRequest struct {
	ReceiptNumber string   `json:"receiptNumber" validate:"required"`
	CustomerName  string   `json:"customerName"`
	CustomerEmail string   `json:"customerEmail" validate:"required,email"`
	OrderDate     string   `json:"orderDate"`
	DeliveryDate  string   `json:"deliveryDate"`
	TotalAmount   string   `json:"totalAmount"`
	AdminEmails   []string `json:"adminEmails" validate:"omitempty,dive,email"`
	Receipt       string   `json:"receipt" validate:"omitempty,base64"`
}

// SendReceipt handles POST /api/email/send-receipt-email
func (h *EmailHandler) SendReceipt(w http.ResponseWriter, r *http.Request) {
	var req SendReceiptRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	var attachment []byte
	if req.Receipt != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Receipt)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("receipt must be base64 encoded"), h.logger)
			return
		}
		if len(decoded) > maxReceiptBytes {
			httputil.WriteError(w, r, apperrors.InvalidInput("receipt file must not exceed 5MB"), h.logger)
			return
		}
		attachment = decoded
	}

	res, err := h.receipts.SendReceipt(r.Context(), &notify.Receipt{
		ReceiptNumber: req.ReceiptNumber,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		OrderDate:     req.OrderDate,
		DeliveryDate:  req.DeliveryDate,
		TotalAmount:   req.TotalAmount,
		AdminEmails:   req.AdminEmails,
		Attachment:    attachment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, httputil.Payload{
		"message":   "receipt email sent successfully",
		"messageId": res.MessageID,
	})
}
