// Package signature provides the keyed-hash primitives shared by the
// per-platform webhook verifiers. All comparisons are constant-time.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// HMACSHA256Hex computes an HMAC-SHA256 over data and returns it
// hex-encoded.
func HMACSHA256Hex(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// HMACSHA256Base64 computes an HMAC-SHA256 over data and returns it
// base64-encoded.
func HMACSHA256Base64(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Equal compares two signature strings in constant time.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
