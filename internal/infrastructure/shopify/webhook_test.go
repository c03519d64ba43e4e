package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWebhook(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerify(t *testing.T) {
	v := NewWebhookVerifier("webhook-secret")
	payload := []byte(`{"domain":"example.myshopify.com"}`)

	require.NoError(t, v.Verify(payload, signWebhook("webhook-secret", payload)))

	t.Run("tampered payload rejected", func(t *testing.T) {
		sig := signWebhook("webhook-secret", payload)
		assert.Error(t, v.Verify([]byte(`{"domain":"evil.myshopify.com"}`), sig))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		assert.Error(t, v.Verify(payload, signWebhook("other-secret", payload)))
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		assert.Error(t, v.Verify(payload, ""))
	})
}
