/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"time"

	"github.com/btcsuite/btcutil/base58"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/jsonutil"
)

const (
	// Ed25519Signature2018 is the only proof type produced and accepted.
	Ed25519Signature2018 = "Ed25519Signature2018"
	// ParentOwnershipPurpose is the purpose of a parent-to-child ownership proof.
	ParentOwnershipPurpose = "parentOwnership"
	// ParentOwnershipFragment is the verification method fragment a proof points at by default.
	ParentOwnershipFragment = "parent-ownership"
)

// Proof is an ownership proof: the parent's signature over the canonical JSON of every other field.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	Child              string `json:"child"`
	Signature          string `json:"signature,omitempty"`
}

// NewOwnershipProof returns an unsigned proof for child.
func NewOwnershipProof(child, verificationMethod string, created time.Time) *Proof {
	return &Proof{
		Type:               Ed25519Signature2018,
		Created:            created.UTC().Format(time.RFC3339Nano),
		VerificationMethod: verificationMethod,
		ProofPurpose:       ParentOwnershipPurpose,
		Child:              child,
	}
}

// SigningPayload returns the canonical JSON of the proof without its signature.
func (p *Proof) SigningPayload() ([]byte, error) {
	unsigned := *p
	unsigned.Signature = ""

	return jsonutil.Marshal(unsigned)
}

// Sign signs the proof with the parent keypair and stores the base58 signature.
func (p *Proof) Sign(parent *keypair.KeyPair) error {
	if parent == nil {
		return errors.New("signing key is required")
	}

	payload, err := p.SigningPayload()
	if err != nil {
		return err
	}

	sig, err := parent.Sign(payload)
	if err != nil {
		return err
	}

	p.Signature = base58.Encode(sig)

	return nil
}

// Verify reports whether the proof signature was made by the raw Ed25519 public key.
func (p *Proof) Verify(pub []byte) bool {
	if p.Signature == "" {
		return false
	}

	payload, err := p.SigningPayload()
	if err != nil {
		return false
	}

	return keypair.Verify(pub, payload, base58.Decode(p.Signature))
}

// Fields lists the JSON field names present in the proof.
func (p *Proof) Fields() []string {
	fields := []string{"type", "created", "verificationMethod", "proofPurpose", "child"}
	if p.Signature != "" {
		fields = append(fields, "signature")
	}

	return fields
}
