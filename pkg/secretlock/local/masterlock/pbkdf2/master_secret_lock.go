/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pbkdf2

import (
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	cipherutil "github.com/idobjects/idobjects-framework-go/pkg/secretlock/local/internal/cipher"
)

// package pbkdf2 provides a PBKDF2 implementation of secretlock as a masterlock.
// the underlying golang.org/x/crypto/pbkdf2 package implements IETF RFC 8018's PBKDF2 specification found at:
// https://tools.ietf.org/html/rfc8018#section-5.2.

// DefaultIterations is used by callers that do not tune the work factor.
const DefaultIterations = 310000

type masterLockPBKDF2 struct {
	aead cipher.AEAD
}

// NewMasterLock derives an AES-256-GCM master key from `passphrase` with PBKDF2 using hash function `h`,
// `iterations` and `salt`. The salt is optional and can be set to nil.
func NewMasterLock(passphrase string, h func() hash.Hash, iterations int, salt []byte) (secretlock.Service, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is empty")
	}

	if h == nil {
		return nil, fmt.Errorf("hash is nil")
	}

	if iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive")
	}

	size := h().Size()
	if size > sha256.Size { // AEAD cipher requires at most sha256.Size
		return nil, fmt.Errorf("hash size not supported")
	}

	masterKey := pbkdf2.Key([]byte(passphrase), salt, iterations, sha256.Size, h)

	aead, err := cipherutil.CreateAESCipher(masterKey)
	if err != nil {
		return nil, err
	}

	return &masterLockPBKDF2{aead: aead}, nil
}

// Encrypt a secret in req
// (keyURI is used for remote locks, it is ignored by this implementation).
func (m *masterLockPBKDF2) Encrypt(keyURI string, req *secretlock.EncryptRequest) (*secretlock.EncryptResponse, error) {
	return cipherutil.Seal(m.aead, req), nil
}

// Decrypt a secret in req
// (keyURI is used for remote locks, it is ignored by this implementation).
func (m *masterLockPBKDF2) Decrypt(keyURI string, req *secretlock.DecryptRequest) (*secretlock.DecryptResponse, error) {
	return cipherutil.Open(m.aead, req)
}
