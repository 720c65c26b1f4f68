/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

// ErrInvalidMultibase is returned when a string is not a 'z' (base58btc) multibase value.
var ErrInvalidMultibase = errors.New("invalid base58btc multibase value")

// EncodePublicKey encodes raw key bytes as 'z' + base58btc. No multicodec prefix is added.
func EncodePublicKey(pub []byte) string {
	// Base58BTC is always a known encoding so Encode cannot fail.
	s, _ := multibase.Encode(multibase.Base58BTC, pub) //nolint:errcheck

	return s
}

// DecodePublicKey is the exact inverse of EncodePublicKey.
func DecodePublicKey(encoded string) ([]byte, error) {
	if encoded == "" || encoded[0] != byte(multibase.Base58BTC) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMultibase, encoded)
	}

	// the encoding of an empty key
	if len(encoded) == 1 {
		return []byte{}, nil
	}

	_, data, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMultibase, err)
	}

	return data, nil
}

// DecodeEd25519PublicKey decodes a multibase value and checks it holds an Ed25519 public key.
func DecodeEd25519PublicKey(encoded string) ([]byte, error) {
	pub, err := DecodePublicKey(encoded)
	if err != nil {
		return nil, err
	}

	if len(pub) != keypair.PublicKeySize {
		return nil, fmt.Errorf("%w: expected %d key bytes, got %d", ErrInvalidMultibase, keypair.PublicKeySize, len(pub))
	}

	return pub, nil
}

// DIDKey returns the did:key identifier of pub and its document.
func DIDKey(pub []byte) (string, *did.Doc) {
	encoded := EncodePublicKey(pub)
	didKey := fmt.Sprintf("did:%s:%s", DIDMethod, encoded)

	return didKey, createDoc(didKey, encoded)
}

func createDoc(didKey, encoded string) *did.Doc {
	keyID := fmt.Sprintf("%s#%s", didKey, encoded)

	return &did.Doc{
		Context: []interface{}{did.ContextV1},
		ID:      didKey,
		VerificationMethod: []did.VerificationMethod{{
			ID:                 keyID,
			Type:               did.Ed25519VerificationKey2018,
			Controller:         didKey,
			PublicKeyMultibase: encoded,
		}},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID},
	}
}
