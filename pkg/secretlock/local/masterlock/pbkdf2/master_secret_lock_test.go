/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pbkdf2

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/google/tink/go/subtle/random"
	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
)

func TestMasterLock(t *testing.T) {
	keySize := sha256.New().Size()
	testKey := random.GetRandomBytes(uint32(keySize))
	goodPassphrase := "somepassphrase"

	salt := make([]byte, keySize)
	_, err := rand.Read(salt)
	require.NoError(t, err)

	mkLock, err := NewMasterLock(goodPassphrase, sha256.New, 1000, salt)
	require.NoError(t, err)

	t.Run("bad constructor arguments", func(t *testing.T) {
		_, err = NewMasterLock("", sha256.New, 1000, salt)
		require.EqualError(t, err, "passphrase is empty")

		_, err = NewMasterLock(goodPassphrase, nil, 1000, salt)
		require.EqualError(t, err, "hash is nil")

		_, err = NewMasterLock(goodPassphrase, sha256.New, 0, salt)
		require.Error(t, err)

		mkLockBad, err := NewMasterLock(goodPassphrase, sha512.New, 1000, salt)
		require.EqualError(t, err, "hash size not supported")
		require.Empty(t, mkLockBad)
	})

	encryptedMk, err := mkLock.Encrypt("", &secretlock.EncryptRequest{Plaintext: string(testKey)})
	require.NoError(t, err)
	require.NotEmpty(t, encryptedMk)

	decryptedMk, err := mkLock.Decrypt("", &secretlock.DecryptRequest{Ciphertext: encryptedMk.Ciphertext})
	require.NoError(t, err)
	require.Equal(t, testKey, []byte(decryptedMk.Plaintext))

	t.Run("decrypt with a non valid base64URL string", func(t *testing.T) {
		d, err := mkLock.Decrypt("", &secretlock.DecryptRequest{Ciphertext: "bad{}base64URLstring[]"})
		require.Error(t, err)
		require.Empty(t, d)
	})

	t.Run("decrypt a too short ciphertext", func(t *testing.T) {
		d, err := mkLock.Decrypt("", &secretlock.DecryptRequest{Ciphertext: "AAAA"})
		require.Error(t, err)
		require.Empty(t, d)
	})

	t.Run("same passphrase and salt opens the secret", func(t *testing.T) {
		mkLock2, err := NewMasterLock(goodPassphrase, sha256.New, 1000, salt)
		require.NoError(t, err)

		d, err := mkLock2.Decrypt("", &secretlock.DecryptRequest{Ciphertext: encryptedMk.Ciphertext})
		require.NoError(t, err)
		require.Equal(t, testKey, []byte(d.Plaintext))
	})

	t.Run("different passphrase fails", func(t *testing.T) {
		mkLock2, err := NewMasterLock("other", sha256.New, 1000, salt)
		require.NoError(t, err)

		d, err := mkLock2.Decrypt("", &secretlock.DecryptRequest{Ciphertext: encryptedMk.Ciphertext})
		require.Error(t, err)
		require.Empty(t, d)
	})
}
