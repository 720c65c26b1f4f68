/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jsonutil produces the canonical JSON form that content hashes and ownership proofs are computed over.
//
// Canonical JSON here means: object keys sorted by code point at every depth, ", " between members and
// elements, ": " between keys and values, every character outside printable ASCII written as a lowercase \uXXXX
// escape (surrogate pairs above the BMP) and numbers written exactly as they were given. Content hashes and
// ownership proofs of existing did:idobjects records are computed over exactly these bytes.
package jsonutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"
)

// Marshal returns the canonical JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal to canonical JSON: %w", err)
	}

	return Canonicalize(raw)
}

// Canonicalize rewrites a JSON document into its canonical form.
func Canonicalize(raw []byte) ([]byte, error) {
	var generic interface{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize JSON: %w", err)
	}

	buf := &bytes.Buffer{}

	if err := encode(buf, generic); err != nil {
		return nil, fmt.Errorf("canonicalize JSON: %w", err)
	}

	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		writeString(buf, val)
	case []interface{}:
		buf.WriteByte('[')

		for i, e := range val {
			if i > 0 {
				buf.WriteString(", ")
			}

			if err := encode(buf, e); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		// byte order of UTF-8 is code point order
		sort.Strings(keys)

		buf.WriteByte('{')

		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}

			writeString(buf, k)
			buf.WriteString(": ")

			if err := encode(buf, val[k]); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported JSON value of type %T", v)
	}

	return nil
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')

	for _, r := range s {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r >= 0x20 && r < 0x7f:
			buf.WriteRune(r)
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			writeEscape(buf, r1)
			writeEscape(buf, r2)
		default:
			writeEscape(buf, r)
		}
	}

	buf.WriteByte('"')
}

func writeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[r>>12&0xf])
	buf.WriteByte(hexDigits[r>>8&0xf])
	buf.WriteByte(hexDigits[r>>4&0xf])
	buf.WriteByte(hexDigits[r&0xf])
}

// HashHex returns the lowercase hex SHA-256 of the canonical JSON encoding of v.
func HashHex(v interface{}) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}

	return SHA256Hex(b), nil
}

// SHA256Hex returns the lowercase hex SHA-256 of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:])
}

// ToMap converts v into its generic JSON object form. Numbers are kept as json.Number.
func ToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]interface{}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := dec.Decode(&m); err != nil {
		return nil, err
	}

	return m, nil
}
