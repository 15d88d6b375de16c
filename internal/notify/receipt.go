package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	apperrors "github.com/febluxury/storefront/pkg/errors"
)

// ReceiptSubject is the subject line of order receipts.
const ReceiptSubject = "Your FEB Luxury Order Confirmation"

// Receipt holds the details of an order confirmation email.
type Receipt struct {
	ReceiptNumber string
	CustomerName  string
	CustomerEmail string
	OrderDate     string
	DeliveryDate  string
	TotalAmount   string
	AdminEmails   []string
	// Attachment is the receipt PDF, optional.
	Attachment []byte
}

// ReceiptResult is returned after a receipt was handed to the sender.
type ReceiptResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order, {{.CustomerName}}!</h2>
  <p>Your order has been received and is being processed.</p>
  <table cellpadding="6">
    <tr><td><strong>Receipt number</strong></td><td>{{.ReceiptNumber}}</td></tr>
    <tr><td><strong>Order date</strong></td><td>{{.OrderDate}}</td></tr>
    <tr><td><strong>Estimated delivery</strong></td><td>{{.DeliveryDate}}</td></tr>
    <tr><td><strong>Total</strong></td><td>{{.TotalAmount}}</td></tr>
  </table>
  {{- if .HasAttachment}}
  <p>Your receipt is attached to this email.</p>
  {{- end}}
  <p>FEB Luxury</p>
</body>
</html>`))

// ReceiptSender renders order receipts and sends them.
type ReceiptSender struct {
	sender Sender
	from   string
	admins []string
	now    func() time.Time
	logger *slog.Logger
}

// NewReceiptSender creates a receipt sender. admins are always blind
// copied in addition to the admin addresses of each request.
func NewReceiptSender(sender Sender, from string, admins []string, logger *slog.Logger) *ReceiptSender {
	return &ReceiptSender{
		sender: sender,
		from:   from,
		admins: admins,
		now:    time.Now,
		logger: logger,
	}
}

// SendReceipt validates r, fills defaults for the optional fields and sends
// the confirmation to the customer with the admins in Bcc.
func (s *ReceiptSender) SendReceipt(ctx context.Context, r *Receipt) (*ReceiptResult, error) {
	if r.CustomerEmail == "" || r.ReceiptNumber == "" {
		return nil, apperrors.InvalidInput("customer email and receipt number are required")
	}

	view := struct {
		Receipt
		HasAttachment bool
	}{Receipt: *r, HasAttachment: len(r.Attachment) > 0}
	if view.CustomerName == "" {
		view.CustomerName = "Valued Customer"
	}
	if view.OrderDate == "" {
		view.OrderDate = s.now().Format("01/02/2006")
	}
	if view.DeliveryDate == "" {
		view.DeliveryDate = "To be confirmed"
	}
	if view.TotalAmount == "" {
		view.TotalAmount = "0.00"
	}

	var html bytes.Buffer
	if err := receiptTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	msg := &Message{
		From:    s.from,
		To:      []string{r.CustomerEmail},
		Bcc:     mergeAddresses(s.admins, r.AdminEmails),
		Subject: ReceiptSubject,
		HTML:    html.String(),
	}
	if len(r.Attachment) > 0 {
		msg.Attachments = []Attachment{{
			Filename:    fmt.Sprintf("receipt-%s.pdf", r.ReceiptNumber),
			ContentType: "application/pdf",
			Content:     r.Attachment,
		}}
	}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send receipt via %s: %w", s.sender.Name(), err)
	}

	s.logger.InfoContext(ctx, "receipt email sent",
		slog.String("receipt_number", r.ReceiptNumber),
		slog.String("message_id", id),
	)

	return &ReceiptResult{Success: true, MessageID: id}, nil
}

// mergeAddresses concatenates the lists, dropping blanks and duplicates.
func mergeAddresses(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, addr := range list {
			if addr == "" {
				continue
			}
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}
