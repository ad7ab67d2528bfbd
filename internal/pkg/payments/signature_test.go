package payments

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_test", now)

	assert.NoError(t, VerifyWebhookSignature(payload, header, "whsec_test", now))
}

func TestVerifyWebhookSignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_test", now)

	tampered := []byte(`{"id":"evt_2"}`)
	assert.ErrorIs(t, VerifyWebhookSignature(tampered, header, "whsec_test", now), ErrSignatureInvalid)
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_test", now)

	assert.ErrorIs(t, VerifyWebhookSignature(payload, header, "whsec_other", now), ErrSignatureInvalid)
}

func TestVerifyWebhookSignature_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(-SignatureTolerance - time.Minute)
	header := SignPayload(payload, "whsec_test", signedAt)

	assert.ErrorIs(t, VerifyWebhookSignature(payload, header, "whsec_test", time.Now()), ErrSignatureInvalid)
}

func TestVerifyWebhookSignature_FutureTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(SignatureTolerance + time.Minute)
	header := SignPayload(payload, "whsec_test", signedAt)

	assert.ErrorIs(t, VerifyWebhookSignature(payload, header, "whsec_test", time.Now()), ErrSignatureInvalid)
}

func TestVerifyWebhookSignature_WithinTolerance(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(-SignatureTolerance + time.Minute)
	header := SignPayload(payload, "whsec_test", signedAt)

	assert.NoError(t, VerifyWebhookSignature(payload, header, "whsec_test", time.Now()))
}

func TestVerifyWebhookSignature_MissingParts(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	cases := []string{
		"",
		"t=123",
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		"garbage",
	}
	for _, header := range cases {
		assert.ErrorIs(t, VerifyWebhookSignature(payload, header, "whsec_test", now), ErrSignatureInvalid, "header %q", header)
	}
}

func TestVerifyWebhookSignature_EmptySecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_test", now)

	assert.ErrorIs(t, VerifyWebhookSignature(payload, header, "", now), ErrSignatureInvalid)
}

func TestVerifyWebhookSignature_MultipleCandidates(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	valid := SignPayload(payload, "whsec_test", now)

	// Prepend a bogus v1 candidate; the valid one must still match.
	parts := strings.SplitN(valid, ",", 2)
	header := fmt.Sprintf("%s,v1=%s,%s", parts[0], strings.Repeat("ab", 32), parts[1])

	assert.NoError(t, VerifyWebhookSignature(payload, header, "whsec_test", now))
}
