package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/jetstreamair/jetshare/internal/domain"
)

// SignBody returns the HMAC-SHA256 hex digest of body under secret. Exposed
// so tests and provider simulators can produce valid signatures.
func SignBody(secret string, body []byte) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

// verifySignature does a constant-time comparison of the presented signature
// against the expected digest of the raw body.
func verifySignature(secret, signature string, body []byte) error {
	if signature == "" {
		return domain.E(domain.KindInvalidSignature, "missing webhook signature")
	}
	expected := SignBody(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.E(domain.KindInvalidSignature, "webhook signature mismatch")
	}
	return nil
}
