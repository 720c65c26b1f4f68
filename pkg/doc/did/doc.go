/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did holds the DID document model shared by the did:key codec and the did:idobjects registry.
package did

import (
	"encoding/json"
	"fmt"
)

const (
	// ContextV1 of the DID document.
	ContextV1 = "https://www.w3.org/ns/did/v1"
	// Ed25519VerificationKey2018 is the verification method type of every key in this framework.
	Ed25519VerificationKey2018 = "Ed25519VerificationKey2018"
	// NotFoundMarker is set as the document error of a resolution that found nothing.
	NotFoundMarker = "DID not found in registry"
)

// VerificationMethod DID doc verification method.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyPem       string `json:"publicKeyPem,omitempty"`
}

// Doc DID Document definition.
//
// Children is nil for documents that do not track children (did:key); idobjects documents always carry a
// non-nil list, serialized as [] when empty.
type Doc struct {
	Context              []interface{}
	ID                   string
	Controller           string
	VerificationMethod   []VerificationMethod
	Authentication       []string
	AssertionMethod      []string
	CapabilityInvocation []string
	CapabilityDelegation []string
	Children             []string
	Proof                *Proof
	Error                string
}

type rawDoc struct {
	Context              []interface{}        `json:"@context"`
	ID                   string               `json:"id"`
	Controller           string               `json:"controller,omitempty"`
	VerificationMethod   []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []string             `json:"authentication,omitempty"`
	AssertionMethod      []string             `json:"assertionMethod,omitempty"`
	CapabilityInvocation []string             `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []string             `json:"capabilityDelegation,omitempty"`
	Children             *[]string            `json:"children,omitempty"`
	Proof                *Proof               `json:"proof,omitempty"`
	Error                string               `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (d *Doc) MarshalJSON() ([]byte, error) {
	raw := rawDoc{
		Context:              d.Context,
		ID:                   d.ID,
		Controller:           d.Controller,
		VerificationMethod:   d.VerificationMethod,
		Authentication:       d.Authentication,
		AssertionMethod:      d.AssertionMethod,
		CapabilityInvocation: d.CapabilityInvocation,
		CapabilityDelegation: d.CapabilityDelegation,
		Proof:                d.Proof,
		Error:                d.Error,
	}

	if d.Children != nil {
		children := d.Children
		raw.Children = &children
	}

	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Doc) UnmarshalJSON(data []byte) error {
	raw := rawDoc{}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("JSON unmarshalling of did doc bytes failed: %w", err)
	}

	*d = Doc{
		Context:              raw.Context,
		ID:                   raw.ID,
		Controller:           raw.Controller,
		VerificationMethod:   raw.VerificationMethod,
		Authentication:       raw.Authentication,
		AssertionMethod:      raw.AssertionMethod,
		CapabilityInvocation: raw.CapabilityInvocation,
		CapabilityDelegation: raw.CapabilityDelegation,
		Proof:                raw.Proof,
		Error:                raw.Error,
	}

	if raw.Children != nil {
		d.Children = append([]string{}, *raw.Children...)
	}

	return nil
}

// ParseDocument creates an instance of Doc by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	doc := &Doc{}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("%w: document id is missing", ErrMalformedDID)
	}

	return doc, nil
}

// JSONBytes converts document to json bytes.
func (d *Doc) JSONBytes() ([]byte, error) {
	return json.Marshal(d)
}

// Copy returns a deep copy of the document.
func (d *Doc) Copy() (*Doc, error) {
	b, err := d.JSONBytes()
	if err != nil {
		return nil, err
	}

	return ParseDocument(b)
}

// VerificationMethodOfType returns the first verification method of the given type.
func (d *Doc) VerificationMethodOfType(vmType string) (*VerificationMethod, bool) {
	for i := range d.VerificationMethod {
		if d.VerificationMethod[i].Type == vmType {
			vm := d.VerificationMethod[i]

			return &vm, true
		}
	}

	return nil, false
}

// DocResolution is the result of resolving a DID.
type DocResolution struct {
	DIDDocument *Doc `json:"didDocument"`
}

// NotFound builds the resolution returned for an unregistered DID.
func NotFound(id string) *DocResolution {
	return &DocResolution{DIDDocument: &Doc{
		Context: []interface{}{ContextV1},
		ID:      id,
		Error:   NotFoundMarker,
	}}
}

// Found reports whether the resolution carries a registered document.
func (r *DocResolution) Found() bool {
	return r.DIDDocument != nil && r.DIDDocument.Error == ""
}

// ParseDocumentResolution parses a JSON resolution result.
func ParseDocumentResolution(data []byte) (*DocResolution, error) {
	res := &DocResolution{}

	if err := json.Unmarshal(data, res); err != nil {
		return nil, err
	}

	if res.DIDDocument == nil {
		return nil, fmt.Errorf("%w: resolution has no didDocument", ErrMalformedDID)
	}

	return res, nil
}
