package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHeader(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func TestVerify_ValidSignature(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"hello":"world"}`)
	require.True(t, Verify(secret, validHeader(secret, body), body))
}

func TestVerify_BitFlipInBodyFails(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"hello":"world"}`)
	header := validHeader(secret, body)

	flipped := append([]byte(nil), body...)
	flipped[0] ^= 0x01

	assert.False(t, Verify(secret, header, flipped))
}

func TestVerify_BitFlipInHeaderFails(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{"hello":"world"}`)
	header := []byte(validHeader(secret, body))
	header[len(header)-1] ^= 0x01

	assert.False(t, Verify(secret, string(header), body))
}

func TestVerify_MissingPrefixFails(t *testing.T) {
	secret := "s3cret"
	body := []byte(`{}`)
	raw := validHeader(secret, body)[len(signaturePrefix):]
	assert.False(t, Verify(secret, raw, body))
}

func TestVerify_EmptyHeaderFails(t *testing.T) {
	assert.False(t, Verify("secret", "", []byte("body")))
}

func TestVerify_NonHexSuffixFails(t *testing.T) {
	assert.False(t, Verify("secret", "sha256=not-hex!!", []byte("body")))
}
