package discord

import (
	"crypto/ed25519"
	"encoding/hex"
)

// VerifyInteraction checks the detached Ed25519 signature Discord sends with
// every interaction callback. The signed message is the timestamp header
// concatenated with the request body exactly as received on the wire; the
// caller must pass the raw bytes, never a re-serialized payload.
func VerifyInteraction(publicKey ed25519.PublicKey, timestamp string, rawBody []byte, signatureHex string) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(rawBody))
	msg = append(msg, timestamp...)
	msg = append(msg, rawBody...)
	return ed25519.Verify(publicKey, msg, sig)
}
