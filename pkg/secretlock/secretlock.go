/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package secretlock defines the lock used to protect private key material handed back to callers.
//
// The core never persists private keys. When a collaborator wants to keep one (exporting a DID key to disk,
// returning it over the REST API) it builds a Service from a passphrase it owns and passes it to
// keypair.Export / keypair.Import.
package secretlock

// Service encrypts and decrypts secrets. keyURI is reserved for remote locks and is ignored by the
// local master locks.
type Service interface {
	Encrypt(keyURI string, req *EncryptRequest) (*EncryptResponse, error)
	Decrypt(keyURI string, req *DecryptRequest) (*DecryptResponse, error)
}

// EncryptRequest for encrypting a secret.
type EncryptRequest struct {
	Plaintext                   string
	AdditionalAuthenticatedData string
}

// DecryptRequest for decrypting a secret.
type DecryptRequest struct {
	Ciphertext                  string
	AdditionalAuthenticatedData string
}

// EncryptResponse holds the encoded ciphertext.
type EncryptResponse struct {
	Ciphertext string
}

// DecryptResponse holds the recovered secret.
type DecryptResponse struct {
	Plaintext string
}
