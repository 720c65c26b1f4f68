/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPKCS7(t *testing.T) {
	t.Run("pad and unpad", func(t *testing.T) {
		for n := 0; n <= 33; n++ {
			msg := make([]byte, n)
			padded := pkcs7Pad(msg, 16)
			require.Zero(t, len(padded)%16)
			require.Greater(t, len(padded), n)

			unpadded, err := pkcs7Unpad(padded, 16)
			require.NoError(t, err)
			require.Equal(t, msg, unpadded)
		}
	})

	t.Run("invalid padding", func(t *testing.T) {
		for _, b := range [][]byte{
			nil,
			make([]byte, 15),
			make([]byte, 16),
			append(make([]byte, 15), 17),
			append(make([]byte, 14), 1, 2),
		} {
			_, err := pkcs7Unpad(b, 16)
			require.ErrorIs(t, err, ErrPadding)
		}
	})
}
