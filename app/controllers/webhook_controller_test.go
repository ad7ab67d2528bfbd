package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianWeber/FanGate/internal/pkg/payments"
)

const webhookTestSecret = "whsec_controller_test"

type fakeWebhookProcessor struct {
	calls     int
	lastEvent *payments.Event
	result    payments.ProcessResult
	err       error
}

func (f *fakeWebhookProcessor) ProcessEvent(ctx context.Context, ev *payments.Event, raw []byte) (*payments.ProcessResult, error) {
	f.calls++
	f.lastEvent = ev
	if f.err != nil {
		return nil, f.err
	}
	out := f.result
	out.EventID = ev.ID
	return &out, nil
}

func newWebhookTestApp(t *testing.T, fake *fakeWebhookProcessor) *fiber.App {
	t.Helper()
	t.Setenv("PAYMENT_WEBHOOK_SECRET", webhookTestSecret)

	orig := newWebhookProcessor
	newWebhookProcessor = func() webhookProcessor { return fake }
	t.Cleanup(func() { newWebhookProcessor = orig })

	app := fiber.New()
	app.Post("/webhooks/payments", HandlePaymentWebhook)
	return app
}

func newWebhookRequest(payload []byte, signatureHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signatureHeader != "" {
		req.Header.Set("Stripe-Signature", signatureHeader)
	}
	return req
}

func decodeWebhookResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func payoutEventPayload(id string) []byte {
	return []byte(`{"id":"` + id + `","type":"payout.paid","created":1756200000,"data":{"object":{"id":"po_1","status":"paid"}}}`)
}

func TestHandlePaymentWebhook_WrongSecretRejectedBeforeProcessing(t *testing.T) {
	fake := &fakeWebhookProcessor{}
	app := newWebhookTestApp(t, fake)

	payload := payoutEventPayload("evt_sig_1")
	header := payments.SignPayload(payload, "some-other-secret", time.Now())

	resp, err := app.Test(newWebhookRequest(payload, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_signature", decodeWebhookResponse(t, resp)["error"])
	assert.Zero(t, fake.calls)
}

func TestHandlePaymentWebhook_MissingSignatureHeader(t *testing.T) {
	fake := &fakeWebhookProcessor{}
	app := newWebhookTestApp(t, fake)

	resp, err := app.Test(newWebhookRequest(payoutEventPayload("evt_sig_2"), ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, fake.calls)
}

func TestHandlePaymentWebhook_TamperedBodyRejected(t *testing.T) {
	fake := &fakeWebhookProcessor{}
	app := newWebhookTestApp(t, fake)

	payload := payoutEventPayload("evt_sig_3")
	header := payments.SignPayload(payload, webhookTestSecret, time.Now())
	tampered := bytes.Replace(payload, []byte("po_1"), []byte("po_2"), 1)

	resp, err := app.Test(newWebhookRequest(tampered, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, fake.calls)
}

func TestHandlePaymentWebhook_MalformedPayloadAfterValidSignature(t *testing.T) {
	fake := &fakeWebhookProcessor{}
	app := newWebhookTestApp(t, fake)

	// Verified sender, broken body. Answered 5xx so the provider redelivers.
	payload := []byte(`{"id":"evt_broken","type":`)
	header := payments.SignPayload(payload, webhookTestSecret, time.Now())

	resp, err := app.Test(newWebhookRequest(payload, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "invalid_payload", decodeWebhookResponse(t, resp)["error"])
	assert.Zero(t, fake.calls)
}

func TestHandlePaymentWebhook_HandledEventAnswersOK(t *testing.T) {
	fake := &fakeWebhookProcessor{result: payments.ProcessResult{Handled: true}}
	app := newWebhookTestApp(t, fake)

	payload := payoutEventPayload("evt_ok_1")
	header := payments.SignPayload(payload, webhookTestSecret, time.Now())

	resp, err := app.Test(newWebhookRequest(payload, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeWebhookResponse(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["duplicate"])
	assert.Equal(t, true, body["handled"])

	assert.Equal(t, 1, fake.calls)
	require.NotNil(t, fake.lastEvent)
	assert.Equal(t, "evt_ok_1", fake.lastEvent.ID)
	assert.Equal(t, payments.EventPayoutPaid, fake.lastEvent.Type)
}

func TestHandlePaymentWebhook_ReplayAnswersOKWithDuplicateFlag(t *testing.T) {
	fake := &fakeWebhookProcessor{result: payments.ProcessResult{AlreadyProcessed: true}}
	app := newWebhookTestApp(t, fake)

	payload := payoutEventPayload("evt_replay_1")
	header := payments.SignPayload(payload, webhookTestSecret, time.Now())

	resp, err := app.Test(newWebhookRequest(payload, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeWebhookResponse(t, resp)
	assert.Equal(t, true, body["duplicate"])
}

func TestHandlePaymentWebhook_DataIntegrityFailureAnswers500(t *testing.T) {
	fake := &fakeWebhookProcessor{err: payments.ErrDataIntegrity}
	app := newWebhookTestApp(t, fake)

	payload := payoutEventPayload("evt_integrity_1")
	header := payments.SignPayload(payload, webhookTestSecret, time.Now())

	resp, err := app.Test(newWebhookRequest(payload, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "data_integrity", decodeWebhookResponse(t, resp)["error"])
}

func TestHandlePaymentWebhook_ProcessingFailureAnswers500(t *testing.T) {
	fake := &fakeWebhookProcessor{err: errors.New("db down")}
	app := newWebhookTestApp(t, fake)

	payload := payoutEventPayload("evt_fail_1")
	header := payments.SignPayload(payload, webhookTestSecret, time.Now())

	resp, err := app.Test(newWebhookRequest(payload, header), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "processing_failed", decodeWebhookResponse(t, resp)["error"])
}
