/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keypair

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
)

// Export encrypts the private key with lock. aad binds the ciphertext to a context such as the DID the key
// controls; the same value must be passed to Import.
func Export(k *KeyPair, lock secretlock.Service, aad string) (string, error) {
	if lock == nil {
		return "", errors.New("secret lock is required")
	}

	seed := k.PrivateKey()
	if seed == nil {
		return "", fmt.Errorf("%w: private key wiped", ErrInvalidKey)
	}

	resp, err := lock.Encrypt("", &secretlock.EncryptRequest{
		Plaintext:                   base58.Encode(seed),
		AdditionalAuthenticatedData: aad,
	})

	wipe(seed)

	if err != nil {
		return "", fmt.Errorf("export private key: %w", err)
	}

	return resp.Ciphertext, nil
}

// Import reverses Export.
func Import(ciphertext string, lock secretlock.Service, aad string) (*KeyPair, error) {
	if lock == nil {
		return nil, errors.New("secret lock is required")
	}

	resp, err := lock.Decrypt("", &secretlock.DecryptRequest{
		Ciphertext:                  ciphertext,
		AdditionalAuthenticatedData: aad,
	})
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	seed := base58.Decode(resp.Plaintext)
	defer wipe(seed)

	return FromSeed(seed)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
