/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/controller/command"
)

func TestHandlers(t *testing.T) {
	t.Run("http handler", func(t *testing.T) {
		h := NewHTTPHandler("/idobjects/did/create", http.MethodPost, func(http.ResponseWriter, *http.Request) {})
		require.Equal(t, "/idobjects/did/create", h.Path())
		require.Equal(t, http.MethodPost, h.Method())
		require.NotNil(t, h.Handle())
		require.Equal(t, "POST /idobjects/did/create", h.String())
	})

	t.Run("command handler", func(t *testing.T) {
		h := NewCommandHandler("didregistry", "CreateDID", func(io.Writer, io.Reader) command.Error { return nil })
		require.Equal(t, "didregistry", h.Name())
		require.Equal(t, "CreateDID", h.Method())
		require.Nil(t, h.Handle()(nil, nil))
		require.Equal(t, "didregistry.CreateDID", h.String())
	})
}
