/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

func TestVDR(t *testing.T) {
	v := New()

	require.True(t, v.Accept("key"))
	require.False(t, v.Accept("idobjects"))

	kp, doc, err := v.Create()
	require.NoError(t, err)

	defer kp.Wipe()

	t.Run("read created did", func(t *testing.T) {
		res, err := v.Read(doc.ID)
		require.NoError(t, err)
		require.True(t, res.Found())
		require.Equal(t, doc, res.DIDDocument)
	})

	t.Run("read errors", func(t *testing.T) {
		for _, id := range []string{
			"not-a-did",
			"did:idobjects:main:abc",
			"did:key:abc",
			"did:key:z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH",
		} {
			_, err := v.Read(id)
			require.ErrorIs(t, err, did.ErrMalformedDID, id)
		}
	})
}
