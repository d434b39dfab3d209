package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// newSignature generates the opaque settlement signature attached to every
// exchange record: 128 bits of randomness, hex encoded.
func newSignature() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to generate signature: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
