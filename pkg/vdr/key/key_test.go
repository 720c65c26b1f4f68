/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

func TestEncodeDecode(t *testing.T) {
	t.Run("round trip for generated keys", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			kp, err := keypair.Generate()
			require.NoError(t, err)

			encoded := EncodePublicKey(kp.PublicKey())
			require.True(t, strings.HasPrefix(encoded, "z"))
			require.Equal(t, "z"+base58.Encode(kp.PublicKey()), encoded)

			decoded, err := DecodePublicKey(encoded)
			require.NoError(t, err)
			require.Equal(t, kp.PublicKey(), decoded)
		}
	})

	t.Run("leading zero bytes survive", func(t *testing.T) {
		pub := make([]byte, keypair.PublicKeySize)
		pub[31] = 1

		decoded, err := DecodeEd25519PublicKey(EncodePublicKey(pub))
		require.NoError(t, err)
		require.Equal(t, pub, decoded)
	})

	t.Run("wrong prefix", func(t *testing.T) {
		_, err := DecodePublicKey("f00ff")
		require.ErrorIs(t, err, ErrInvalidMultibase)

		_, err = DecodePublicKey("")
		require.ErrorIs(t, err, ErrInvalidMultibase)
	})

	t.Run("empty key round trip", func(t *testing.T) {
		for _, pub := range [][]byte{nil, {}} {
			encoded := EncodePublicKey(pub)
			require.Equal(t, "z", encoded)

			decoded, err := DecodePublicKey(encoded)
			require.NoError(t, err)
			require.Empty(t, decoded)
		}

		_, err := DecodeEd25519PublicKey("z")
		require.ErrorIs(t, err, ErrInvalidMultibase)
	})

	t.Run("bad alphabet", func(t *testing.T) {
		_, err := DecodePublicKey("z0OIl")
		require.ErrorIs(t, err, ErrInvalidMultibase)
	})

	t.Run("wrong key length", func(t *testing.T) {
		_, err := DecodeEd25519PublicKey(EncodePublicKey([]byte("short")))
		require.ErrorIs(t, err, ErrInvalidMultibase)
	})
}

func TestDIDKey(t *testing.T) {
	kp, err := keypair.Generate()
	require.NoError(t, err)

	encoded := EncodePublicKey(kp.PublicKey())
	didKey, doc := DIDKey(kp.PublicKey())

	require.Equal(t, "did:key:"+encoded, didKey)
	require.Equal(t, didKey, doc.ID)
	require.Equal(t, []interface{}{did.ContextV1}, doc.Context)
	require.Len(t, doc.VerificationMethod, 1)

	vm := doc.VerificationMethod[0]
	require.Equal(t, didKey+"#"+encoded, vm.ID)
	require.Equal(t, did.Ed25519VerificationKey2018, vm.Type)
	require.Equal(t, didKey, vm.Controller)
	require.Equal(t, encoded, vm.PublicKeyMultibase)
	require.Equal(t, []string{vm.ID}, doc.Authentication)
	require.Equal(t, []string{vm.ID}, doc.AssertionMethod)
	require.Nil(t, doc.Children)
	require.Nil(t, doc.Proof)
}
