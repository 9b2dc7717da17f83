package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifySignature checks a webhook's keyed hash over the raw request body.
// Paystack-style: hex-encoded HMAC-SHA512 of the body under the secret key.
// Comparison is constant time; callers must treat a mismatch as a hard
// rejection and must never log the secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
