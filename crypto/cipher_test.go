package crypto_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/nalix-net/nalix/crypto"
)

func testKey(t *testing.T) []byte {
	key := make([]byte, crypto.KeyLen)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func TestEncryptDecryptRoundTripAllModes(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	for _, mode := range []crypto.Mode{crypto.ModeGCM, crypto.ModeCTR, crypto.ModeCFB, crypto.ModeNone} {
		framed, err := crypto.Encrypt(mode, key, plaintext)
		if err != nil {
			t.Fatalf("mode %d: Encrypt: %v", mode, err)
		}
		got, err := crypto.Decrypt(mode, key, framed)
		if err != nil {
			t.Fatalf("mode %d: Decrypt: %v", mode, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("mode %d: round trip mismatch", mode)
		}
	}
}

func TestGCMRejectsTamperedCiphertext(t *testing.T) {
	key := testKey(t)
	framed, err := crypto.Encrypt(crypto.ModeGCM, key, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	framed[len(framed)-1] ^= 0xFF
	if _, err := crypto.Decrypt(crypto.ModeGCM, key, framed); err == nil {
		t.Fatal("expected tampered GCM ciphertext to fail authentication")
	}
}

func TestEncryptRejectsWrongKeyLength(t *testing.T) {
	if _, err := crypto.Encrypt(crypto.ModeGCM, []byte("short"), []byte("x")); err == nil {
		t.Fatal("expected error for short key")
	}
}
