package auth

import (
	"encoding/base64"
	"fmt"
)

// minKeyBytes is the floor for HMAC-SHA256 key material.
const minKeyBytes = 32

// LoadSigningKey derives the token signing key from the configured secret.
// The secret is tried as standard base64 first; anything that does not decode
// is used as raw UTF-8 bytes. Keys shorter than 32 bytes are rejected so a
// weak deployment fails at boot instead of issuing forgeable tokens.
func LoadSigningKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: signing secret is not configured")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key = []byte(secret)
	}
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("auth: signing secret is too short: need at least %d key bytes, got %d", minKeyBytes, len(key))
	}
	return key, nil
}
