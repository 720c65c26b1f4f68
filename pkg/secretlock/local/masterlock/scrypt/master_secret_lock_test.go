/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package scrypt

import (
	"testing"

	"github.com/google/tink/go/subtle/random"
	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
)

// cheap parameters keep the test fast.
var testParams = Params{N: 1 << 10, R: 8, P: 1}

func TestMasterLock(t *testing.T) {
	salt := random.GetRandomBytes(16)

	lock, err := NewMasterLock("correct horse", salt, testParams)
	require.NoError(t, err)

	enc, err := lock.Encrypt("", &secretlock.EncryptRequest{Plaintext: "secret seed", AdditionalAuthenticatedData: "did"})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		dec, err := lock.Decrypt("", &secretlock.DecryptRequest{Ciphertext: enc.Ciphertext, AdditionalAuthenticatedData: "did"})
		require.NoError(t, err)
		require.Equal(t, "secret seed", dec.Plaintext)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		other, err := NewMasterLock("battery staple", salt, testParams)
		require.NoError(t, err)

		_, err = other.Decrypt("", &secretlock.DecryptRequest{Ciphertext: enc.Ciphertext, AdditionalAuthenticatedData: "did"})
		require.EqualError(t, err, errWrongPassphrase.Error())
	})

	t.Run("wrong associated data", func(t *testing.T) {
		_, err := lock.Decrypt("", &secretlock.DecryptRequest{Ciphertext: enc.Ciphertext})
		require.Error(t, err)
	})

	t.Run("empty passphrase", func(t *testing.T) {
		_, err := NewMasterLock("", salt, testParams)
		require.EqualError(t, err, "passphrase is empty")
	})

	t.Run("invalid cost", func(t *testing.T) {
		_, err := NewMasterLock("pw", salt, Params{N: 3, R: 8, P: 1})
		require.Error(t, err)
	})
}
