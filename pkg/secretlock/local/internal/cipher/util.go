/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"

	"github.com/google/tink/go/subtle/random"

	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
)

// ErrInvalidCiphertext is returned when a ciphertext is too short to hold a nonce and a tag.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// CreateAESCipher will create a new AES-GCM cipher for the given master key.
func CreateAESCipher(masterKey []byte) (cipher.AEAD, error) {
	cipherBlock, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(cipherBlock)
}

// Seal encrypts req with aead under a fresh random nonce. The nonce is prepended to the ciphertext and the
// result is base64URL encoded.
func Seal(aead cipher.AEAD, req *secretlock.EncryptRequest) *secretlock.EncryptResponse {
	nonce := random.GetRandomBytes(uint32(aead.NonceSize()))
	ct := aead.Seal(nil, nonce, []byte(req.Plaintext), []byte(req.AdditionalAuthenticatedData))
	ct = append(nonce, ct...)

	return &secretlock.EncryptResponse{
		Ciphertext: base64.URLEncoding.EncodeToString(ct),
	}
}

// Open reverses Seal.
func Open(aead cipher.AEAD, req *secretlock.DecryptRequest) (*secretlock.DecryptResponse, error) {
	ct, err := base64.URLEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		return nil, err
	}

	nonceSize := aead.NonceSize()

	// ensure ciphertext contains more than nonce+tag (result from Seal())
	if len(ct) <= nonceSize+aead.Overhead()-1 {
		return nil, ErrInvalidCiphertext
	}

	pt, err := aead.Open(nil, ct[:nonceSize], ct[nonceSize:], []byte(req.AdditionalAuthenticatedData))
	if err != nil {
		return nil, err
	}

	return &secretlock.DecryptResponse{Plaintext: string(pt)}, nil
}
