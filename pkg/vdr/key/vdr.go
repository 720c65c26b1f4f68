/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key implements the did:key method: a self-certifying DID whose identifier is the multibase encoded
// Ed25519 public key. Resolution needs no registry and no network.
package key

import (
	"fmt"
	"regexp"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

// DIDMethod is the did:key method name.
const DIDMethod = "key"

var methodIDRegex = regexp.MustCompile(`^z[1-9A-HJ-NP-Za-km-z]{43,44}$`)

// VDR implements did:key method support.
type VDR struct{}

// New returns new instance of VDR that works with did:key method.
func New() *VDR {
	return &VDR{}
}

// Accept accepts did:key method.
func (v *VDR) Accept(method string) bool {
	return method == DIDMethod
}

// Create generates a fresh keypair and returns it with its did:key document.
// The caller owns the returned keypair and must Wipe it once the private key has been handed off.
func (v *VDR) Create() (*keypair.KeyPair, *did.Doc, error) {
	kp, err := keypair.Generate()
	if err != nil {
		return nil, nil, err
	}

	_, doc := DIDKey(kp.PublicKey())

	return kp, doc, nil
}

// Read expands did:key value to a DID document.
func (v *VDR) Read(didKey string) (*did.DocResolution, error) {
	parsed, err := did.Parse(didKey)
	if err != nil {
		return nil, fmt.Errorf("did:key vdr Read: %w", err)
	}

	if parsed.Method != DIDMethod {
		return nil, fmt.Errorf("%w: not a did:key: %s", did.ErrMalformedDID, didKey)
	}

	if !methodIDRegex.MatchString(parsed.MethodSpecificID) {
		return nil, fmt.Errorf("%w: invalid did:key method ID: %s", did.ErrMalformedDID, parsed.MethodSpecificID)
	}

	pub, err := DecodeEd25519PublicKey(parsed.MethodSpecificID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", did.ErrMalformedDID, err)
	}

	_, doc := DIDKey(pub)

	return &did.DocResolution{DIDDocument: doc}, nil
}
