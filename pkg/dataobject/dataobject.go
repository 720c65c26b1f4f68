/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dataobject implements the sealed data object: content bound to an owner DID, encrypted for the
// owner, fingerprinted with a content hash and guarded by validity conditions.
//
// A DataObject is an immutable value. Accessors return copies and there are no setters; Invalidate returns a
// new value.
package dataobject

import (
	"bytes"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/envelope"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/validity"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/jsonutil"
)

const (
	// StateActive is the state of every newly created data object.
	StateActive = "active"
	// StateInvalid is terminal.
	StateInvalid = "invalid"
)

var (
	// ErrMalformed is returned when a serialized data object cannot be read.
	ErrMalformed = errors.New("malformed data object")
	// ErrInvalidTransition is returned when invalidating an object that is already invalid.
	ErrInvalidTransition = errors.New("data object is already invalid")
)

// DataObject is a sealed, owner-bound piece of content.
type DataObject struct {
	ownerDIDHash     string
	dataType         string
	content          map[string]interface{}
	encryptedContent string
	createdAt        time.Time
	contentHash      string
	state            string
	conditions       []validity.Condition
}

// Create seals content for the owner of ownerDID. The content is encrypted for ownerEncryptionKey, which is
// an RSA key separate from the DID signing key.
func Create(ownerDID, dataType string, content map[string]interface{}, ownerEncryptionKey *rsa.PublicKey,
	conditions []validity.Condition) (*DataObject, error) {
	if ownerDID == "" {
		return nil, errors.New("owner DID is required")
	}

	if content == nil {
		return nil, errors.New("content is required")
	}

	canonical, err := jsonutil.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}

	normalized, err := decodeObject(canonical)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}

	conds, err := normalizeConditions(conditions)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Seal(canonical, ownerEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("seal content: %w", err)
	}

	encrypted, err := env.Marshal()
	if err != nil {
		return nil, err
	}

	return &DataObject{
		ownerDIDHash:     HashDID(ownerDID),
		dataType:         dataType,
		content:          normalized,
		encryptedContent: encrypted,
		createdAt:        time.Now().UTC(),
		contentHash:      jsonutil.SHA256Hex(canonical),
		state:            StateActive,
		conditions:       conds,
	}, nil
}

// HashDID returns the owner hash stored for a DID.
func HashDID(ownerDID string) string {
	sum := sha256.Sum256([]byte(ownerDID))

	return hex.EncodeToString(sum[:])
}

// OwnerDIDHash returns the hex SHA-256 of the owner DID.
func (o *DataObject) OwnerDIDHash() string { return o.ownerDIDHash }

// DataType returns the caller supplied type label.
func (o *DataObject) DataType() string { return o.dataType }

// EncryptedContent returns the JSON encoded envelope.
func (o *DataObject) EncryptedContent() string { return o.encryptedContent }

// CreatedAt returns the creation time in UTC.
func (o *DataObject) CreatedAt() time.Time { return o.createdAt }

// ContentHash returns the hex SHA-256 of the canonical content.
func (o *DataObject) ContentHash() string { return o.contentHash }

// State returns StateActive or StateInvalid.
func (o *DataObject) State() string { return o.state }

// Active reports whether the object is in the active state.
func (o *DataObject) Active() bool { return o.state == StateActive }

// Content returns a copy of the plaintext content.
func (o *DataObject) Content() map[string]interface{} {
	return cloneValue(o.content).(map[string]interface{})
}

// ValidityConditions returns a copy of the validity conditions.
func (o *DataObject) ValidityConditions() []validity.Condition {
	conds := make([]validity.Condition, len(o.conditions))

	for i, c := range o.conditions {
		conds[i] = validity.Condition{
			Type:        c.Type,
			Parameters:  cloneValue(c.Parameters).(map[string]interface{}),
			Description: c.Description,
		}
	}

	return conds
}

// Envelope parses the encrypted content.
func (o *DataObject) Envelope() (*envelope.Envelope, error) {
	return envelope.Parse(o.encryptedContent)
}

// Decrypt opens the encrypted content with the owner's private key. Envelope errors are returned unchanged.
func (o *DataObject) Decrypt(ownerEncryptionKey *rsa.PrivateKey) (map[string]interface{}, error) {
	env, err := o.Envelope()
	if err != nil {
		return nil, err
	}

	pt, err := envelope.Open(env, ownerEncryptionKey)
	if err != nil {
		return nil, err
	}

	content, err := decodeObject(pt)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypted content is not a JSON object", ErrMalformed)
	}

	return content, nil
}

// VerifyOwner reports whether ownerDID is exactly the DID the object was created for.
func (o *DataObject) VerifyOwner(ownerDID string) bool {
	return subtle.ConstantTimeCompare([]byte(HashDID(ownerDID)), []byte(o.ownerDIDHash)) == 1
}

// VerifyContent reports whether the held content still matches the content hash.
func (o *DataObject) VerifyContent() bool {
	h, err := jsonutil.HashHex(o.content)
	if err != nil {
		return false
	}

	return h == o.contentHash
}

// IsValid reports whether the object is active and meets its validity conditions at now.
func (o *DataObject) IsValid(now time.Time) bool {
	return validity.IsValid(o, now)
}

// Evaluate returns the first validity violation at now, or nil.
func (o *DataObject) Evaluate(now time.Time) *validity.Violation {
	return validity.Evaluate(o, now)
}

// Invalidate returns a copy of the object in the invalid state. The receiver is not modified.
func (o *DataObject) Invalidate() (*DataObject, error) {
	if o.state != StateActive {
		return nil, ErrInvalidTransition
	}

	invalid := *o
	invalid.content = o.Content()
	invalid.conditions = o.ValidityConditions()
	invalid.state = StateInvalid

	return &invalid, nil
}

func normalizeConditions(conditions []validity.Condition) ([]validity.Condition, error) {
	for i, c := range conditions {
		if c.Type == "" {
			return nil, fmt.Errorf("validity condition %d has no type", i)
		}
	}

	b, err := json.Marshal(conditions)
	if err != nil {
		return nil, fmt.Errorf("validity conditions: %w", err)
	}

	return decodeConditions(b)
}

func decodeConditions(b []byte) ([]validity.Condition, error) {
	var conds []validity.Condition

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if err := dec.Decode(&conds); err != nil {
		return nil, fmt.Errorf("validity conditions: %w", err)
	}

	out := make([]validity.Condition, 0, len(conds))

	for _, c := range conds {
		if c.Parameters == nil {
			c.Parameters = map[string]interface{}{}
		}

		out = append(out, c)
	}

	return out, nil
}

func decodeObject(b []byte) (map[string]interface{}, error) {
	var m map[string]interface{}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if err := dec.Decode(&m); err != nil {
		return nil, err
	}

	if m == nil {
		return nil, errors.New("not a JSON object")
	}

	return m, nil
}

// cloneValue deep copies a decoded JSON value.
func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}

		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}

		return s
	default:
		return v
	}
}
