package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signBody computes HMAC-SHA256 of a webhook body with the provider's
// shared secret. Lowercase hex.
func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyBodySignature checks a vendor-supplied signature against the
// shared secret. Constant-time comparison. An empty secret never
// verifies: anyone can compute an HMAC over the empty key.
func verifyBodySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	expected := signBody(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// verifyToken compares a static callback token in constant time.
func verifyToken(expected, got string) bool {
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
