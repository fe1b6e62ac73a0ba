package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/curve25519"
)

// X25519KeyPair holds a Curve25519 key-exchange key pair.
type X25519KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateX25519 produces a fresh key-exchange key pair for the handshake.
func GenerateX25519() (X25519KeyPair, error) {
	var kp X25519KeyPair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return kp, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return kp, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// X25519SharedSecret derives the shared secret from this side's private key
// and the peer's public key.
func X25519SharedSecret(private, peerPublic [32]byte) ([]byte, error) {
	return curve25519.X25519(private[:], peerPublic[:])
}

// Ed25519KeyPair holds a signing key pair used to authenticate handshake
// messages.
type Ed25519KeyPair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// GenerateEd25519 produces a fresh signing key pair.
func GenerateEd25519() (Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Ed25519KeyPair{}, err
	}
	return Ed25519KeyPair{Private: priv, Public: pub}, nil
}

// Sign signs msg with the given private key.
func Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// Verify checks a signature produced by Sign.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}

var ErrHandshakeKeyLen = errors.New("crypto: invalid handshake key length")
