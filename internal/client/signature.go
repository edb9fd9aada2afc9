package client

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Sign builds the iPaymu request signature. The raw request body is
// SHA-256 hashed to lowercase hex, joined with the method, VA number and
// API key as METHOD:va:bodyHash:apiKey, and the result is HMAC-SHA256'd
// with the API key. The gateway recomputes the same string on its side, so
// the construction has to match byte for byte.
func Sign(method, va string, body []byte, apiKey string) string {
	bodyHash := sha256.Sum256(body)
	stringToSign := method + ":" + va + ":" + hex.EncodeToString(bodyHash[:]) + ":" + apiKey

	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(stringToSign))
	return hex.EncodeToString(mac.Sum(nil))
}

// Timestamp formats t for the gateway's timestamp header: local wall
// clock, YYYYMMDDHHmmss, zero-padded, no separators.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}
