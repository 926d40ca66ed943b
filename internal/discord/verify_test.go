package discord

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signInteraction(t *testing.T, priv ed25519.PrivateKey, timestamp string, body []byte) string {
	t.Helper()
	msg := append([]byte(timestamp), body...)
	return hex.EncodeToString(ed25519.Sign(priv, msg))
}

func TestVerifyInteraction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	timestamp := "1700000000"
	body := []byte(`{"type":1}`)
	sig := signInteraction(t, priv, timestamp, body)

	t.Run("accepts a genuine signature", func(t *testing.T) {
		assert.True(t, VerifyInteraction(pub, timestamp, body, sig))
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		assert.False(t, VerifyInteraction(pub, timestamp, []byte(`{"type":2}`), sig))
	})

	t.Run("rejects a swapped timestamp", func(t *testing.T) {
		assert.False(t, VerifyInteraction(pub, "1700000001", body, sig))
	})

	t.Run("rejects a signature from another key", func(t *testing.T) {
		_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		otherSig := signInteraction(t, otherPriv, timestamp, body)
		assert.False(t, VerifyInteraction(pub, timestamp, body, otherSig))
	})

	t.Run("rejects malformed hex", func(t *testing.T) {
		assert.False(t, VerifyInteraction(pub, timestamp, body, "not-hex"))
	})

	t.Run("rejects a truncated signature", func(t *testing.T) {
		assert.False(t, VerifyInteraction(pub, timestamp, body, sig[:32]))
	})
}
