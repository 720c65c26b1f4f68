/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataobject

import (
	"encoding/json"

	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/validity"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
)

// SealDataObjectRequest model
//
// Seals Content, or the container when Container is set, for the owner of OwnerDID.
type SealDataObjectRequest struct {
	OwnerDID string `json:"owner_did"`

	// PEM encoded RSA public key the content is encrypted for.
	EncryptionPublicKey string `json:"encryption_public_key"`

	DataType string                 `json:"data_type,omitempty"`
	Content  map[string]interface{} `json:"content,omitempty"`

	// Container bytes, base64 encoded in JSON. The data object content is then built from the container.
	Container []byte `json:"container,omitempty"`
	Filename  string `json:"filename,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`

	// Defaults to a one year expiration for containers and to none for plain content.
	ValidityConditions []validity.Condition `json:"validity_conditions,omitempty"`
}

// SealDataObjectResponse model.
type SealDataObjectResponse struct {
	ID            string          `json:"id"`
	ContainerHash string          `json:"container_hash,omitempty"`
	DataObject    json.RawMessage `json:"data_object"`
}

// VerifyDataObjectRequest model
//
// Either Container or ContainerHash identifies the current container. Both are empty for plain content.
type VerifyDataObjectRequest struct {
	ID string `json:"id"`

	// PEM encoded RSA private key of the owner.
	EncryptionPrivateKey string `json:"encryption_private_key"`

	Container     []byte `json:"container,omitempty"`
	ContainerHash string `json:"container_hash,omitempty"`

	// RFC 3339 evaluation time, defaults to now.
	Now string `json:"now,omitempty"`
}

// VerifyDataObjectResponse model.
type VerifyDataObjectResponse struct {
	Valid            bool                   `json:"valid"`
	Error            string                 `json:"error,omitempty"`
	DataObject       json.RawMessage        `json:"data_object,omitempty"`
	DecryptedContent map[string]interface{} `json:"decrypted_content,omitempty"`
}

// IDArg model.
type IDArg struct {
	ID string `json:"id"`
}

// ListDataObjectsRequest model.
type ListDataObjectsRequest struct {
	// Defaults to 100.
	Limit    int    `json:"limit,omitempty"`
	OwnerDID string `json:"owner_did,omitempty"`
}

// ListDataObjectsResponse model.
type ListDataObjectsResponse struct {
	Results []*dostore.Record `json:"results"`
}

// GenerateEncryptionKeyRequest model.
type GenerateEncryptionKeyRequest struct {
	// Defaults to 2048.
	Bits int `json:"bits,omitempty"`
}

// GenerateEncryptionKeyResponse model.
type GenerateEncryptionKeyResponse struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// Event is published on Topic after a data object was sealed or verified.
type Event struct {
	Event         string `json:"event"`
	ID            string `json:"id"`
	ContainerHash string `json:"container_hash,omitempty"`
	Valid         *bool  `json:"valid,omitempty"`
	Error         string `json:"error,omitempty"`
}
