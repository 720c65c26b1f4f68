/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package envelope implements hybrid encryption: content is encrypted with a fresh AES-256-CBC key and that
// key is wrapped for the recipient with RSA-OAEP (SHA-1 digest and MGF1-SHA-1, empty label).
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
)

const (
	// KeySize is the size of the content encryption key.
	KeySize = 32
	// IVSize is the size of the CBC initialization vector.
	IVSize = aes.BlockSize
)

// oaepHash is the OAEP digest and mask generation hash. Envelopes already in circulation were wrapped with it.
var oaepHash = sha1.New //nolint:gochecknoglobals

var (
	// ErrKeyUnwrap is returned when the content key cannot be unwrapped: wrong private key or tampered key.
	ErrKeyUnwrap = errors.New("failed to unwrap content key")
	// ErrPadding is returned when the decrypted content has invalid padding: tampered content or wrong key.
	ErrPadding = errors.New("invalid content padding")
	// ErrMalformedEnvelope is returned when an envelope field cannot be decoded.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is the sealed form of some content. All fields are standard base64.
type Envelope struct {
	EncryptedContent string `json:"encrypted_content"`
	EncryptedKey     string `json:"encrypted_key"`
	IV               string `json:"iv"`
}

// Seal encrypts plaintext for the holder of the private key matching pub.
func Seal(plaintext []byte, pub *rsa.PublicKey) (*Envelope, error) {
	return seal(rand.Reader, plaintext, pub)
}

func seal(random io.Reader, plaintext []byte, pub *rsa.PublicKey) (*Envelope, error) {
	if pub == nil {
		return nil, errors.New("recipient public key is required")
	}

	cek := make([]byte, KeySize)
	iv := make([]byte, IVSize)

	defer wipe(cek)

	if _, err := io.ReadFull(random, cek); err != nil {
		return nil, fmt.Errorf("%w: %s", keypair.ErrEntropy, err)
	}

	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, fmt.Errorf("%w: %s", keypair.ErrEntropy, err)
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	wrapped, err := rsa.EncryptOAEP(oaepHash(), random, pub, cek, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap content key: %w", err)
	}

	return &Envelope{
		EncryptedContent: base64.StdEncoding.EncodeToString(ct),
		EncryptedKey:     base64.StdEncoding.EncodeToString(wrapped),
		IV:               base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Open decrypts the envelope. It returns the whole plaintext or an error, never partial content.
func Open(env *Envelope, priv *rsa.PrivateKey) ([]byte, error) {
	if env == nil || priv == nil {
		return nil, errors.New("envelope and private key are required")
	}

	wrapped, err := decodeField("encrypted_key", env.EncryptedKey)
	if err != nil {
		return nil, err
	}

	iv, err := decodeField("iv", env.IV)
	if err != nil {
		return nil, err
	}

	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrMalformedEnvelope, IVSize)
	}

	ct, err := decodeField("encrypted_content", env.EncryptedContent)
	if err != nil {
		return nil, err
	}

	cek, err := rsa.DecryptOAEP(oaepHash(), nil, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyUnwrap, err)
	}

	defer wipe(cek)

	if len(cek) != KeySize {
		return nil, fmt.Errorf("%w: unexpected key size %d", ErrKeyUnwrap, len(cek))
	}

	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrPadding)
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}

	padded := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)

	pt, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		wipe(padded)

		return nil, err
	}

	return pt, nil
}

// Marshal returns the JSON string form of the envelope, as embedded in data objects.
func (e *Envelope) Marshal() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Parse reads the JSON string form of an envelope.
func Parse(s string) (*Envelope, error) {
	env := &Envelope{}

	if err := json.Unmarshal([]byte(s), env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEnvelope, err)
	}

	if env.EncryptedContent == "" || env.EncryptedKey == "" || env.IV == "" {
		return nil, fmt.Errorf("%w: missing field", ErrMalformedEnvelope)
	}

	return env, nil
}

func decodeField(name, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedEnvelope, name, err)
	}

	return b, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
