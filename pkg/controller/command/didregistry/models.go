/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didregistry

import (
	"encoding/json"

	"github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
)

// CreateDIDRequest model
//
// Creates a did:idobjects DID, as a child of ParentDID when it is set.
type CreateDIDRequest struct {
	// Parent DID, empty for a root DID.
	ParentDID string `json:"parent_did,omitempty"`

	// Base58 encoded raw private key of the parent.
	ParentPrivateKey string `json:"parent_private_key,omitempty"`

	// Parent private key as returned by CreateDID when the controller protects keys with a secret lock.
	ParentEncryptedPrivateKey string `json:"parent_encrypted_private_key,omitempty"`
}

// CreateDIDResponse model
//
// Exactly one of PrivateKey and EncryptedPrivateKey is set.
type CreateDIDResponse struct {
	DID                 string          `json:"did"`
	DIDDocument         json.RawMessage `json:"did_document"`
	PublicKey           string          `json:"public_key"`
	PrivateKey          string          `json:"private_key,omitempty"`
	EncryptedPrivateKey string          `json:"encrypted_private_key,omitempty"`
}

// DIDArg model
//
// This is used for operations on a single DID.
type DIDArg struct {
	DID string `json:"did"`
}

// VerifyOwnershipRequest model
//
// This is used to check the ownership proof of a child DID against a parent DID.
type VerifyOwnershipRequest struct {
	ChildDID  string `json:"child_did"`
	ParentDID string `json:"parent_did"`
}

// VerifyOwnershipResponse model.
type VerifyOwnershipResponse struct {
	Owned bool `json:"owned"`
}

// ParentDerivationResponse model.
type ParentDerivationResponse struct {
	*idobjects.ParentDerivationReport
}

// ListDIDsResponse model.
type ListDIDsResponse struct {
	DIDs []string `json:"dids"`
}

// Event is published on Topic after a DID was created. It never names the parent.
type Event struct {
	Event string `json:"event"`
	DID   string `json:"did"`
}
