// Package crypto implements the connection-level encryption modes
// (None/GCM/CTR/CFB) the spec names as an external-interface contract
// (§6), plus the X25519 key exchange and Ed25519 signing used during
// handshake.
//
// AES-GCM/CTR/CFB are implemented directly on crypto/aes + crypto/cipher:
// no library in the retrieval pack offers a narrower framed-AEAD API than
// the standard library already provides, so this is a deliberate stdlib
// exception (see DESIGN.md).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// Mode selects a connection's symmetric encryption scheme.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeGCM
	ModeCTR
	ModeCFB
)

const (
	KeyLen = 32 // AES-256
	gcmIVLen  = 12
	ctrCfbIVLen = 16
	gcmTagLen = 16
)

var ErrUnsupportedMode = errors.New("crypto: unsupported encryption mode")

// Encrypt applies the given mode to plaintext with key (must be KeyLen
// bytes), returning ciphertext framed with its IV/nonce prefix (and, for
// GCM, its authentication tag suffix).
func Encrypt(mode Mode, key, plaintext []byte) ([]byte, error) {
	if len(key) != KeyLen {
		return nil, errors.New("crypto: key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeGCM:
		gcm, err := cipher.NewGCMWithNonceSize(block, gcmIVLen)
		if err != nil {
			return nil, err
		}
		nonce := make([]byte, gcmIVLen)
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, err
		}
		ct := gcm.Seal(nil, nonce, plaintext, nil)
		return append(nonce, ct...), nil
	case ModeCTR:
		iv := make([]byte, ctrCfbIVLen)
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return nil, err
		}
		ct := make([]byte, len(plaintext))
		cipher.NewCTR(block, iv).XORKeyStream(ct, plaintext)
		return append(iv, ct...), nil
	case ModeCFB:
		iv := make([]byte, ctrCfbIVLen)
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return nil, err
		}
		ct := make([]byte, len(plaintext))
		cipher.NewCFBEncrypter(block, iv).XORKeyStream(ct, plaintext)
		return append(iv, ct...), nil
	case ModeNone:
		return plaintext, nil
	default:
		return nil, ErrUnsupportedMode
	}
}

// Decrypt reverses Encrypt.
func Decrypt(mode Mode, key, framed []byte) ([]byte, error) {
	if len(key) != KeyLen {
		return nil, errors.New("crypto: key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeGCM:
		if len(framed) < gcmIVLen+gcmTagLen {
			return nil, errors.New("crypto: GCM frame too short")
		}
		gcm, err := cipher.NewGCMWithNonceSize(block, gcmIVLen)
		if err != nil {
			return nil, err
		}
		nonce, ct := framed[:gcmIVLen], framed[gcmIVLen:]
		return gcm.Open(nil, nonce, ct, nil)
	case ModeCTR:
		if len(framed) < ctrCfbIVLen {
			return nil, errors.New("crypto: CTR frame too short")
		}
		iv, ct := framed[:ctrCfbIVLen], framed[ctrCfbIVLen:]
		pt := make([]byte, len(ct))
		cipher.NewCTR(block, iv).XORKeyStream(pt, ct)
		return pt, nil
	case ModeCFB:
		if len(framed) < ctrCfbIVLen {
			return nil, errors.New("crypto: CFB frame too short")
		}
		iv, ct := framed[:ctrCfbIVLen], framed[ctrCfbIVLen:]
		pt := make([]byte, len(ct))
		cipher.NewCFBDecrypter(block, iv).XORKeyStream(pt, ct)
		return pt, nil
	case ModeNone:
		return framed, nil
	default:
		return nil, ErrUnsupportedMode
	}
}
