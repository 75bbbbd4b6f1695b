// Package signing verifies GitHub-style webhook HMAC-SHA256 signatures.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Verify reports whether signatureHeader is a valid HMAC-SHA256 signature of
// body under secret. The comparison is constant-time. A malformed header
// (missing the "sha256=" prefix, or not valid hex) is treated as a failure,
// never an error: the verifier itself is pure.
func Verify(secret, signatureHeader string, body []byte) bool {
	if !strings.HasPrefix(signatureHeader, signaturePrefix) {
		return false
	}
	want, err := hex.DecodeString(strings.TrimPrefix(signatureHeader, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	got := mac.Sum(nil)

	return hmac.Equal(want, got)
}
