package payments

import "context"

// ProcessResult reports what a webhook delivery did. AlreadyProcessed marks
// the idempotent replay outcome, which is success, not failure.
type ProcessResult struct {
	EventID          string `json:"event_id"`
	EventType        string `json:"event_type"`
	Handled          bool   `json:"handled"`
	AlreadyProcessed bool   `json:"already_processed"`
	OrderUUID        string `json:"order_uuid,omitempty"`
	Message          string `json:"message"`
}

// CheckoutInput identifies who is buying what. Identity arrives explicitly
// from the caller's verified context, never from ambient state.
type CheckoutInput struct {
	BuyerID     uint
	ProductUUID string
}

// SessionCreator is the slice of the provider client the checkout initiator
// needs; tests substitute a fake.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
}

// ReceiptSender delivers a purchase receipt. Failures are logged, never
// propagated: mail is best effort and the order already exists.
type ReceiptSender interface {
	SendOrderReceipt(toEmail, orderUUID, itemTitle string, amount int64, currency string) error
}
