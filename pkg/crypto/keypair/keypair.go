/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keypair generates and handles the Ed25519 signing keys that DIDs are derived from.
package keypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// SeedSize is the size of a raw private key (the Ed25519 seed).
	SeedSize = ed25519.SeedSize
	// PublicKeySize is the size of a raw public key.
	PublicKeySize = ed25519.PublicKeySize
	// SignatureSize is the size of a signature.
	SignatureSize = ed25519.SignatureSize
)

var (
	// ErrEntropy is returned when the system randomness source fails.
	ErrEntropy = errors.New("insufficient entropy for key generation")
	// ErrInvalidKey is returned when raw key bytes have the wrong length.
	ErrInvalidKey = errors.New("invalid key")
)

// KeyPair is an Ed25519 signing keypair. The public key is derived deterministically from the seed.
type KeyPair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// Generate creates a keypair from the system CSPRNG.
func Generate() (*KeyPair, error) {
	return generate(rand.Reader)
}

func generate(r io.Reader) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEntropy, err)
	}

	return &KeyPair{pub: pub, priv: priv}, nil
}

// FromSeed rebuilds a keypair from its 32 byte private key.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)

	return &KeyPair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// PublicKey returns a copy of the raw 32 byte public key.
func (k *KeyPair) PublicKey() []byte {
	return append([]byte(nil), k.pub...)
}

// PrivateKey returns a copy of the raw 32 byte private key.
func (k *KeyPair) PrivateKey() []byte {
	if k.priv == nil {
		return nil
	}

	return append([]byte(nil), k.priv.Seed()...)
}

// Sign signs msg with the private key.
func (k *KeyPair) Sign(msg []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("%w: private key wiped", ErrInvalidKey)
	}

	return ed25519.Sign(k.priv, msg), nil
}

// Wipe zeroes the private key. The keypair can still be used for its public key.
func (k *KeyPair) Wipe() {
	for i := range k.priv {
		k.priv[i] = 0
	}

	k.priv = nil
}

// Verify reports whether sig is a valid signature of msg by the raw public key pub.
// Malformed keys or signatures are reported as invalid.
func Verify(pub, msg, sig []byte) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}

	return ed25519.Verify(pub, msg, sig)
}
