/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package scrypt provides a memory-hard master lock: the master key is derived from a passphrase with scrypt
// and secrets are sealed with XChaCha20-Poly1305.
package scrypt

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	cipherutil "github.com/idobjects/idobjects-framework-go/pkg/secretlock/local/internal/cipher"
)

// Params are the scrypt cost parameters.
type Params struct {
	N int
	R int
	P int
}

// DefaultParams returns the interactive-login cost recommended by the scrypt paper.
func DefaultParams() Params {
	return Params{N: 1 << 15, R: 8, P: 1}
}

var errWrongPassphrase = errors.New("wrong passphrase or corrupted secret")

type masterLockScrypt struct {
	aead cipher.AEAD
}

// NewMasterLock derives the master key from passphrase and salt. Salt should be at least 16 random bytes
// and must be kept alongside the protected secrets.
func NewMasterLock(passphrase string, salt []byte, params Params) (secretlock.Service, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is empty")
	}

	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	return &masterLockScrypt{aead: aead}, nil
}

// Encrypt seals req under a random 24-byte nonce.
func (m *masterLockScrypt) Encrypt(_ string, req *secretlock.EncryptRequest) (*secretlock.EncryptResponse, error) {
	return cipherutil.Seal(m.aead, req), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (m *masterLockScrypt) Decrypt(_ string, req *secretlock.DecryptRequest) (*secretlock.DecryptResponse, error) {
	resp, err := cipherutil.Open(m.aead, req)
	if err != nil {
		if errors.Is(err, cipherutil.ErrInvalidCiphertext) {
			return nil, err
		}

		return nil, errWrongPassphrase
	}

	return resp, nil
}
