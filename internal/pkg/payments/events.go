package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider is the single payment provider this deployment talks to. Kept as a
// column value so the processed-event store stays unambiguous if a second
// provider ever lands.
const Provider = "stripe"

// EventType enumerates the webhook event types we know how to handle.
type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout.session.completed"
	EventChargeRefunded        EventType = "charge.refunded"
	EventAccountUpdated        EventType = "account.updated"
	EventPaymentMethodAttached EventType = "payment_method.attached"
	EventPayoutPaid            EventType = "payout.paid"
	EventPayoutFailed          EventType = "payout.failed"
	EventBalanceAvailable      EventType = "balance.available"

	// EventUnrecognized is the explicit variant for anything else. The delivery
	// is acknowledged so the provider stops redelivering, but nothing changes.
	EventUnrecognized EventType = "unrecognized"
)

// Event is the decoded webhook envelope. Exactly one payload pointer matching
// Type is non-nil; unrecognized events carry only ID, RawType and Created.
type Event struct {
	ID      string
	Type    EventType
	RawType string
	Created time.Time

	CheckoutSession *CheckoutSessionPayload
	Charge          *ChargePayload
	Account         *AccountPayload
	PaymentMethod   *PaymentMethodPayload
	Payout          *PayoutPayload
	Balance         *BalancePayload
}

// CheckoutSessionPayload is the slice of a completed checkout session the
// order write path needs. Metadata carries our correlation ids; it is the only
// channel through which the provider tells us what was bought.
type CheckoutSessionPayload struct {
	ID            string          `json:"id"`
	AmountTotal   int64           `json:"amount_total"`
	Currency      string          `json:"currency"`
	PaymentIntent string          `json:"payment_intent"`
	PaymentStatus string          `json:"payment_status"`
	Metadata      SessionMetadata `json:"metadata"`
}

// SessionMetadata is the correlation metadata attached at checkout time.
type SessionMetadata struct {
	BuyerID   string `json:"buyer_id"`
	ProductID string `json:"product_id"`
	SellerID  string `json:"seller_id"`
}

type ChargePayload struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	Refunded       bool   `json:"refunded"`
	AmountRefunded int64  `json:"amount_refunded"`
}

type AccountPayload struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

type PaymentMethodPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type PayoutPayload struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BalancePayload struct {
	Available []BalanceAmount `json:"available"`
}

type BalanceAmount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a verified webhook body into the typed event union.
// Callers must have verified the signature first; this function trusts the
// bytes structurally but still fails on malformed payloads so the provider
// retries (a broken body from a trusted sender is a bug, not an attack).
func ParseEvent(raw []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if strings.TrimSpace(env.ID) == "" {
		return nil, errors.New("event envelope missing id")
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, errors.New("event envelope missing type")
	}

	ev := &Event{
		ID:      env.ID,
		RawType: env.Type,
		Created: time.Unix(env.Created, 0),
	}

	switch EventType(env.Type) {
	case EventCheckoutCompleted:
		ev.Type = EventCheckoutCompleted
		ev.CheckoutSession = &CheckoutSessionPayload{}
		if err := json.Unmarshal(env.Data.Object, ev.CheckoutSession); err != nil {
			return nil, fmt.Errorf("decode checkout session payload: %w", err)
		}
		if ev.CheckoutSession.ID == "" {
			return nil, errors.New("checkout session payload missing session id")
		}
	case EventChargeRefunded:
		ev.Type = EventChargeRefunded
		ev.Charge = &ChargePayload{}
		if err := json.Unmarshal(env.Data.Object, ev.Charge); err != nil {
			return nil, fmt.Errorf("decode charge payload: %w", err)
		}
	case EventAccountUpdated:
		ev.Type = EventAccountUpdated
		ev.Account = &AccountPayload{}
		if err := json.Unmarshal(env.Data.Object, ev.Account); err != nil {
			return nil, fmt.Errorf("decode account payload: %w", err)
		}
	case EventPaymentMethodAttached:
		ev.Type = EventPaymentMethodAttached
		ev.PaymentMethod = &PaymentMethodPayload{}
		if err := json.Unmarshal(env.Data.Object, ev.PaymentMethod); err != nil {
			return nil, fmt.Errorf("decode payment method payload: %w", err)
		}
	case EventPayoutPaid, EventPayoutFailed:
		ev.Type = EventType(env.Type)
		ev.Payout = &PayoutPayload{}
		if err := json.Unmarshal(env.Data.Object, ev.Payout); err != nil {
			return nil, fmt.Errorf("decode payout payload: %w", err)
		}
	case EventBalanceAvailable:
		ev.Type = EventBalanceAvailable
		ev.Balance = &BalancePayload{}
		if err := json.Unmarshal(env.Data.Object, ev.Balance); err != nil {
			return nil, fmt.Errorf("decode balance payload: %w", err)
		}
	default:
		ev.Type = EventUnrecognized
	}

	return ev, nil
}
