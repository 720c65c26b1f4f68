/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonutil

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	t.Run("sorts keys at every depth", func(t *testing.T) {
		b, err := Marshal(map[string]interface{}{
			"b": 1,
			"a": map[string]interface{}{"z": true, "y": []interface{}{"x", map[string]int{"d": 4, "c": 3}}},
		})
		require.NoError(t, err)
		require.Equal(t, `{"a": {"y": ["x", {"c": 3, "d": 4}], "z": true}, "b": 1}`, string(b))
	})

	t.Run("struct fields follow key order", func(t *testing.T) {
		type s struct {
			Zeta  string `json:"zeta"`
			Alpha string `json:"alpha"`
		}

		b, err := Marshal(s{Zeta: "1", Alpha: "<&>"})
		require.NoError(t, err)
		require.Equal(t, `{"alpha": "<&>", "zeta": "1"}`, string(b))
	})

	t.Run("numbers are kept verbatim", func(t *testing.T) {
		b, err := Canonicalize([]byte(`{ "n": 1.50, "m": 10000000000000000001 }`))
		require.NoError(t, err)
		require.Equal(t, `{"m": 10000000000000000001, "n": 1.50}`, string(b))
	})

	t.Run("non-ASCII is escaped", func(t *testing.T) {
		b, err := Canonicalize([]byte(`{"b":"é","a":1}`))
		require.NoError(t, err)
		require.Equal(t, `{"a": 1, "b": "\u00e9"}`, string(b))
		require.Equal(t, "fb0782fb7a8a00c6a46d1f2aadc5c94b9df08eba809089335da3acdf393c7c13", SHA256Hex(b))
	})

	t.Run("control characters and astral code points", func(t *testing.T) {
		b, err := Marshal(map[string]string{"s": "q\"\\\n\x01\x7f\U0001F600/<&>"})
		require.NoError(t, err)
		require.Equal(t, `{"s": "q\"\\\n\u0001\u007f\ud83d\ude00/<&>"}`, string(b))
		require.Equal(t, "520b154f79ccf94686abaa966756799ff84ac40e1c27df86eeb81e15111d3321", SHA256Hex(b))
	})

	t.Run("empty containers and literals", func(t *testing.T) {
		b, err := Canonicalize([]byte(`{"o":{},"l":[],"n":null,"t":true,"f":false}`))
		require.NoError(t, err)
		require.Equal(t, `{"f": false, "l": [], "n": null, "o": {}, "t": true}`, string(b))
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := Marshal(math.Inf(1))
		require.Error(t, err)
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := Canonicalize([]byte(`{"a":`))
		require.Error(t, err)
	})
}

func TestHashHex(t *testing.T) {
	h1, err := HashHex(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)

	h2, err := HashHex(json.RawMessage(`{"b":"2",   "a":"1"}`))
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(nil))
}

func TestToMap(t *testing.T) {
	m, err := ToMap(struct {
		Version string `json:"version"`
		N       int    `json:"n"`
	}{Version: "2", N: 3})
	require.NoError(t, err)
	require.Equal(t, "2", m["version"])
	require.Equal(t, json.Number("3"), m["n"])

	_, err = ToMap([]int{1})
	require.Error(t, err)
}
