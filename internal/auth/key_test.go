package auth

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestLoadSigningKeyBase64(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, 32)
	key, err := LoadSigningKey(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("LoadSigningKey: %v", err)
	}
	if !bytes.Equal(key, raw) {
		t.Fatalf("expected decoded key bytes, got %x", key)
	}
}

func TestLoadSigningKeyRawFallback(t *testing.T) {
	// Not valid base64, long enough as raw bytes.
	secret := strings.Repeat("!", 40)
	key, err := LoadSigningKey(secret)
	if err != nil {
		t.Fatalf("LoadSigningKey: %v", err)
	}
	if string(key) != secret {
		t.Fatalf("expected raw secret bytes, got %q", key)
	}
}

func TestLoadSigningKeyTooShort(t *testing.T) {
	cases := []string{
		"",
		"short",
		// 16 bytes base64 encoded: decodes fine but under the floor.
		base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 16)),
	}
	for _, secret := range cases {
		if _, err := LoadSigningKey(secret); err == nil {
			t.Fatalf("expected error for secret %q", secret)
		}
	}
}

func TestLoadSigningKeyShortBase64OfLongRaw(t *testing.T) {
	// A 44-char raw string that happens to be valid base64 decodes to 33
	// bytes; the structured decode wins and still clears the floor.
	secret := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 33))
	key, err := LoadSigningKey(secret)
	if err != nil {
		t.Fatalf("LoadSigningKey: %v", err)
	}
	if len(key) != 33 {
		t.Fatalf("expected 33 key bytes, got %d", len(key))
	}
}
