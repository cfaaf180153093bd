package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix tags the digest algorithm in the signature header
const SignaturePrefix = "sha256="

// Sign computes the hex HMAC-SHA256 of body under secret, with the
// algorithm prefix. The digest covers the exact bytes given; callers must
// sign the same serialization they send
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header carries a valid signature for body.
// Comparison is constant time
func Verify(secret string, body []byte, header string) bool {
	if secret == "" || !strings.HasPrefix(header, SignaturePrefix) {
		return false
	}
	want := Sign(secret, body)
	return hmac.Equal([]byte(want), []byte(header))
}
