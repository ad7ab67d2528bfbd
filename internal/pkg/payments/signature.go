package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance is the allowed clock skew between the timestamp embedded
// in the signature header and our clock. Deliveries outside the window are
// rejected as replays.
const SignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature checks a provider signature header of the form
//
//	t=<unix>,v1=<hex hmac-sha256>[,v1=<hex>...]
//
// against the exact raw payload bytes. The signed message is "<t>.<payload>".
// This must run before the payload is parsed as trusted data.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string, now time.Time) error {
	secret := strings.TrimSpace(webhookSecret)
	header := strings.TrimSpace(signatureHeader)
	if secret == "" || header == "" {
		return ErrSignatureInvalid
	}

	var ts int64 = -1
	var candidates [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrSignatureInvalid
			}
			ts = v
		case "v1":
			sig, err := hex.DecodeString(strings.ToLower(kv[1]))
			if err != nil {
				continue
			}
			candidates = append(candidates, sig)
		}
	}

	if ts < 0 || len(candidates) == 0 {
		return ErrSignatureInvalid
	}

	issued := time.Unix(ts, 0)
	if now.Sub(issued) > SignatureTolerance || issued.Sub(now) > SignatureTolerance {
		return ErrSignatureInvalid
	}

	expected := computeSignature(payload, secret, ts)
	for _, sig := range candidates {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrSignatureInvalid
}

// SignPayload builds a valid signature header for a payload. The provider
// client does not need it; tests and local tooling do.
func SignPayload(payload []byte, webhookSecret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(payload, webhookSecret, ts)))
}

func computeSignature(payload []byte, secret string, ts int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
