package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
)

// Service owns the two halves of the payment flow: opening checkout sessions
// and turning verified webhook events into durable state.
type Service struct {
	repo     Repository
	sessions SessionCreator
	receipts ReceiptSender
}

// NewService wires the payment service. receipts may be nil when receipt mail
// is not configured.
func NewService(repo Repository, sessions SessionCreator, receipts ReceiptSender) *Service {
	return &Service{repo: repo, sessions: sessions, receipts: receipts}
}

// CreateCheckout validates a purchase attempt and opens a hosted checkout
// session. It writes nothing locally: the order only comes into existence when
// the provider confirms payment via webhook.
func (s *Service) CreateCheckout(ctx context.Context, in CheckoutInput, successURL, cancelURL string) (*CheckoutSession, error) {
	buyer, err := s.repo.GetUserByID(in.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("load buyer %d: %w", in.BuyerID, err)
	}
	if !buyer.IsFan() {
		return nil, ErrWrongRole
	}

	product, err := s.repo.GetProductByUUID(in.ProductUUID)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, ErrNotPurchasable
	}

	artist, err := s.repo.GetArtistByID(product.ArtistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotOnboarded
		}
		return nil, fmt.Errorf("load artist %d: %w", product.ArtistID, err)
	}
	if artist.UserID == buyer.ID {
		return nil, ErrWrongRole
	}
	if !artist.CanAcceptPayments() {
		return nil, ErrSellerNotOnboarded
	}

	session, err := s.sessions.CreateCheckoutSession(ctx, CheckoutSessionInput{
		BuyerID:            buyer.ID,
		ProductID:          product.ID,
		SellerID:           artist.ID,
		ConnectedAccountID: artist.ConnectedAccountID,
		ProductTitle:       product.Title,
		UnitAmount:         product.PriceAmount,
		Currency:           product.Currency,
		SuccessURL:         successURL,
		CancelURL:          cancelURL,
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ProcessEvent dispatches a decoded, signature-verified webhook event. The
// caller persists nothing beforehand; each handler records the event as part
// of its own write so deduplication and effects stay in one transaction.
func (s *Service) ProcessEvent(ctx context.Context, ev *Event, raw []byte) (*ProcessResult, error) {
	switch ev.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ev, raw)
	case EventChargeRefunded:
		return s.handleChargeRefunded(ev, raw)
	case EventAccountUpdated:
		return s.handleAccountUpdated(ev, raw)
	case EventPaymentMethodAttached:
		return s.acknowledge(ev, raw, true, fmt.Sprintf("payment method %s attached", ev.PaymentMethod.ID))
	case EventPayoutPaid, EventPayoutFailed:
		log.Printf("[Payments] payout %s status=%s amount=%d %s", ev.Payout.ID, ev.Payout.Status, ev.Payout.Amount, ev.Payout.Currency)
		return s.acknowledge(ev, raw, true, fmt.Sprintf("payout %s recorded", ev.Payout.Status))
	case EventBalanceAvailable:
		return s.acknowledge(ev, raw, true, "balance snapshot recorded")
	default:
		// Unknown types are stored and acknowledged so the provider stops
		// redelivering, but Handled stays false: nothing was acted on.
		log.Printf("[Payments] ignoring unrecognized event type %q id=%s", ev.RawType, ev.ID)
		return s.acknowledge(ev, raw, false, "event type not handled")
	}
}

func (s *Service) handleCheckoutCompleted(ev *Event, raw []byte) (*ProcessResult, error) {
	cs := ev.CheckoutSession

	buyerID, productID, err := parseSessionMetadata(cs.Metadata)
	if err != nil {
		log.Printf("[Payments] DATA INTEGRITY: event %s has unusable metadata (buyer_id=%q product_id=%q): %v",
			ev.ID, cs.Metadata.BuyerID, cs.Metadata.ProductID, err)
		return nil, fmt.Errorf("%w: event %s: %v", ErrDataIntegrity, ev.ID, err)
	}

	buyer, err := s.repo.GetUserByID(buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Payments] DATA INTEGRITY: event %s paid for unknown buyer %d", ev.ID, buyerID)
			return nil, fmt.Errorf("%w: event %s references unknown buyer %d", ErrDataIntegrity, ev.ID, buyerID)
		}
		return nil, err
	}
	product, err := s.repo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Payments] DATA INTEGRITY: event %s paid for unknown product %d (buyer %d)", ev.ID, productID, buyerID)
			return nil, fmt.Errorf("%w: event %s references unknown product %d", ErrDataIntegrity, ev.ID, productID)
		}
		return nil, err
	}

	order := &models.Order{
		BuyerID:                 buyer.ID,
		TotalAmount:             cs.AmountTotal,
		Currency:                strings.ToLower(cs.Currency),
		Status:                  models.OrderStatusPaid,
		ProviderSessionID:       cs.ID,
		ProviderPaymentIntentID: cs.PaymentIntent,
	}
	lines := []models.OrderLine{{
		ProductID: product.ID,
		ItemType:  product.ItemType,
		UnitPrice: cs.AmountTotal,
		// Copied once here. Later edits to the product must not reach into
		// already sold orders.
		ContentReferenceSnapshot: product.ContentReference,
	}}

	created, err := s.repo.CreateOrderForEvent(newStoredEvent(ev, raw), order, lines)
	if err != nil {
		return nil, err
	}
	if !created {
		return &ProcessResult{
			EventID:          ev.ID,
			EventType:        ev.RawType,
			Handled:          true,
			AlreadyProcessed: true,
			Message:          "event already processed",
		}, nil
	}

	if err := s.repo.MarkEventProcessed(ev.ID, ""); err != nil {
		log.Printf("[Payments] failed to mark event %s processed: %v", ev.ID, err)
	}
	s.sendReceipt(buyer, order, product.Title)

	log.Printf("[Payments] order %s created for buyer %d product %d (event %s)", order.UUID, buyer.ID, product.ID, ev.ID)
	return &ProcessResult{
		EventID:   ev.ID,
		EventType: ev.RawType,
		Handled:   true,
		OrderUUID: order.UUID,
		Message:   "order created",
	}, nil
}

func (s *Service) handleChargeRefunded(ev *Event, raw []byte) (*ProcessResult, error) {
	charge := ev.Charge
	if charge.PaymentIntent == "" {
		log.Printf("[Payments] DATA INTEGRITY: refund event %s carries no payment intent", ev.ID)
		return nil, fmt.Errorf("%w: refund event %s has no payment intent", ErrDataIntegrity, ev.ID)
	}
	if !charge.Refunded {
		return s.acknowledge(ev, raw, true, "partial refund recorded, order unchanged")
	}

	created, err := s.repo.RefundOrderForEvent(newStoredEvent(ev, raw), charge.PaymentIntent)
	if err != nil {
		if errors.Is(err, ErrDataIntegrity) {
			log.Printf("[Payments] DATA INTEGRITY: refund event %s references unknown payment intent %s", ev.ID, charge.PaymentIntent)
		}
		return nil, err
	}
	if !created {
		return &ProcessResult{
			EventID:          ev.ID,
			EventType:        ev.RawType,
			Handled:          true,
			AlreadyProcessed: true,
			Message:          "event already processed",
		}, nil
	}

	if err := s.repo.MarkEventProcessed(ev.ID, ""); err != nil {
		log.Printf("[Payments] failed to mark event %s processed: %v", ev.ID, err)
	}
	log.Printf("[Payments] order refunded for payment intent %s (event %s)", charge.PaymentIntent, ev.ID)
	return &ProcessResult{
		EventID:   ev.ID,
		EventType: ev.RawType,
		Handled:   true,
		Message:   "order refunded",
	}, nil
}

func (s *Service) handleAccountUpdated(ev *Event, raw []byte) (*ProcessResult, error) {
	created, _, err := s.repo.RecordEventIfNotExists(newStoredEvent(ev, raw))
	if err != nil {
		return nil, err
	}
	if !created {
		return &ProcessResult{
			EventID:          ev.ID,
			EventType:        ev.RawType,
			Handled:          true,
			AlreadyProcessed: true,
			Message:          "event already processed",
		}, nil
	}

	artist, err := s.repo.GetArtistByConnectedAccountID(ev.Account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Accounts can exist provider-side before an artist finishes local
			// onboarding. Nothing to update yet.
			msg := fmt.Sprintf("no artist linked to account %s", ev.Account.ID)
			log.Printf("[Payments] account.updated: %s (event %s)", msg, ev.ID)
			if markErr := s.repo.MarkEventProcessed(ev.ID, ""); markErr != nil {
				log.Printf("[Payments] failed to mark event %s processed: %v", ev.ID, markErr)
			}
			return &ProcessResult{EventID: ev.ID, EventType: ev.RawType, Handled: true, Message: msg}, nil
		}
		return nil, err
	}

	artist.ChargesEnabled = ev.Account.ChargesEnabled
	artist.PayoutsEnabled = ev.Account.PayoutsEnabled
	if err := s.repo.SaveArtist(artist); err != nil {
		if markErr := s.repo.MarkEventProcessed(ev.ID, err.Error()); markErr != nil {
			log.Printf("[Payments] failed to mark event %s processed: %v", ev.ID, markErr)
		}
		return nil, err
	}

	if err := s.repo.MarkEventProcessed(ev.ID, ""); err != nil {
		log.Printf("[Payments] failed to mark event %s processed: %v", ev.ID, err)
	}
	log.Printf("[Payments] artist %d capability flags updated: charges=%t payouts=%t (event %s)",
		artist.ID, artist.ChargesEnabled, artist.PayoutsEnabled, ev.ID)
	return &ProcessResult{
		EventID:   ev.ID,
		EventType: ev.RawType,
		Handled:   true,
		Message:   "artist capability flags updated",
	}, nil
}

// acknowledge stores an event that requires no ledger write and marks it
// processed. handled=false distinguishes "stored but unknown" from "acted on".
func (s *Service) acknowledge(ev *Event, raw []byte, handled bool, message string) (*ProcessResult, error) {
	created, _, err := s.repo.RecordEventIfNotExists(newStoredEvent(ev, raw))
	if err != nil {
		return nil, err
	}
	if !created {
		return &ProcessResult{
			EventID:          ev.ID,
			EventType:        ev.RawType,
			Handled:          handled,
			AlreadyProcessed: true,
			Message:          "event already processed",
		}, nil
	}
	if err := s.repo.MarkEventProcessed(ev.ID, ""); err != nil {
		log.Printf("[Payments] failed to mark event %s processed: %v", ev.ID, err)
	}
	return &ProcessResult{
		EventID:   ev.ID,
		EventType: ev.RawType,
		Handled:   handled,
		Message:   message,
	}, nil
}

func (s *Service) sendReceipt(buyer *models.User, order *models.Order, itemTitle string) {
	if s.receipts == nil {
		return
	}
	if err := s.receipts.SendOrderReceipt(buyer.Email, order.UUID, itemTitle, order.TotalAmount, order.Currency); err != nil {
		log.Printf("[Payments] receipt mail for order %s failed: %v", order.UUID, err)
	}
}

func newStoredEvent(ev *Event, raw []byte) *models.PaymentEvent {
	return &models.PaymentEvent{
		Provider:        Provider,
		ProviderEventID: ev.ID,
		EventType:       ev.RawType,
		PayloadJSON:     string(raw),
	}
}

func parseSessionMetadata(meta SessionMetadata) (buyerID, productID uint, err error) {
	b, err := strconv.ParseUint(strings.TrimSpace(meta.BuyerID), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse buyer_id: %w", err)
	}
	p, err := strconv.ParseUint(strings.TrimSpace(meta.ProductID), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse product_id: %w", err)
	}
	return uint(b), uint(p), nil
}
