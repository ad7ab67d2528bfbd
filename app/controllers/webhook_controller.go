package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/internal/pkg/database"
	"github.com/JulianWeber/FanGate/internal/pkg/env"
	"github.com/JulianWeber/FanGate/internal/pkg/mail"
	"github.com/JulianWeber/FanGate/internal/pkg/payments"
)

// webhookProcessor is the slice of the payment service the webhook boundary
// needs.
type webhookProcessor interface {
	ProcessEvent(ctx context.Context, ev *payments.Event, raw []byte) (*payments.ProcessResult, error)
}

// newWebhookProcessor builds the processor per request, like the other
// payment handlers do. Tests swap it for a fake.
var newWebhookProcessor = func() webhookProcessor {
	return payments.NewService(
		payments.NewRepository(database.GetDB()),
		payments.NewClientFromEnv(),
		mail.NewReceiptMailer(),
	)
}

// HandlePaymentWebhook ingests payment provider deliveries. Order of
// operations is load-bearing: the signature is checked against the exact raw
// bytes before anything parses or persists them. Replays answer 200 so the
// provider stops retrying; only signature failures answer 401.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")
	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")

	if err := payments.VerifyWebhookSignature(rawBody, signature, secret, time.Now()); err != nil {
		log.Printf("[Webhook] rejected delivery with invalid signature from %s", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, err := payments.ParseEvent(rawBody)
	if err != nil {
		// Authenticated but unparseable: a provider-side or integration bug.
		// Answer 5xx so the provider redelivers once the bug is fixed.
		log.Printf("[Webhook] malformed payload on verified delivery: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := newWebhookProcessor()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.ProcessEvent(ctx, event, rawBody)
	if err != nil {
		if errors.Is(err, payments.ErrDataIntegrity) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "data_integrity"})
		}
		log.Printf("[Webhook] processing event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":        true,
		"duplicate": result.AlreadyProcessed,
		"handled":   result.Handled,
	})
}
