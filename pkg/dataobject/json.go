/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataobject

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/validity"
)

type rawDataObject struct {
	OwnerDIDHash       string                 `json:"owner_did_hash"`
	DataType           string                 `json:"data_type"`
	Content            map[string]interface{} `json:"content"`
	EncryptedContent   string                 `json:"encrypted_content"`
	CreatedAt          string                 `json:"created_at"`
	ContentHash        string                 `json:"content_hash"`
	State              string                 `json:"state"`
	ValidityConditions []validity.Condition   `json:"validity_conditions"`
}

// MarshalJSON implements json.Marshaler.
func (o *DataObject) MarshalJSON() ([]byte, error) {
	conds := o.conditions
	if conds == nil {
		conds = []validity.Condition{}
	}

	return json.Marshal(rawDataObject{
		OwnerDIDHash:       o.ownerDIDHash,
		DataType:           o.dataType,
		Content:            o.content,
		EncryptedContent:   o.encryptedContent,
		CreatedAt:          o.createdAt.Format(time.RFC3339Nano),
		ContentHash:        o.contentHash,
		State:              o.state,
		ValidityConditions: conds,
	})
}

// Parse reads a serialized data object. The content hash is kept as stored; use VerifyContent to check it.
func Parse(data []byte) (*DataObject, error) {
	var raw struct {
		rawDataObject
		Content            json.RawMessage `json:"content"`
		ValidityConditions json.RawMessage `json:"validity_conditions"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	if raw.OwnerDIDHash == "" || raw.ContentHash == "" || raw.EncryptedContent == "" {
		return nil, fmt.Errorf("%w: missing owner hash, content hash or encrypted content", ErrMalformed)
	}

	if raw.State != StateActive && raw.State != StateInvalid {
		return nil, fmt.Errorf("%w: unknown state %q", ErrMalformed, raw.State)
	}

	createdAt, err := validity.ParseDate(raw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %s", ErrMalformed, err)
	}

	content, err := decodeObject(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: content: %s", ErrMalformed, err)
	}

	conds := []validity.Condition{}

	if len(raw.ValidityConditions) > 0 && string(raw.ValidityConditions) != "null" {
		conds, err = decodeConditions(raw.ValidityConditions)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
		}
	}

	return &DataObject{
		ownerDIDHash:     raw.OwnerDIDHash,
		dataType:         raw.DataType,
		content:          content,
		encryptedContent: raw.EncryptedContent,
		createdAt:        createdAt.UTC(),
		contentHash:      raw.ContentHash,
		state:            raw.State,
		conditions:       conds,
	}, nil
}
