/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package idobjects

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

// ParentDerivationReport explains whether the parent of a DID can be recovered from what is recorded for the
// child alone. The registry looks up the real parent to check every field against it.
type ParentDerivationReport struct {
	ChildDID   string             `json:"child_did"`
	Analysis   DerivationAnalysis `json:"analysis"`
	Derivable  bool               `json:"derivable"`
	Conclusion string             `json:"conclusion"`
}

// DerivationAnalysis holds the per-field findings.
type DerivationAnalysis struct {
	Proof     ProofAnalysis     `json:"proof_analysis"`
	Signature SignatureAnalysis `json:"signature_analysis"`
	Key       KeyAnalysis       `json:"key_analysis"`
}

// ProofAnalysis covers the proof fields.
type ProofAnalysis struct {
	ContainsParentDID bool     `json:"contains_parent_did"`
	ProofFields       []string `json:"proof_fields"`
	Message           string   `json:"message"`
}

// SignatureAnalysis covers the proof signature.
type SignatureAnalysis struct {
	CanDeriveParent bool   `json:"can_derive_parent"`
	Reason          string `json:"reason"`
}

// KeyAnalysis covers the child public key.
type KeyAnalysis struct {
	ChildPublicKeyLength int    `json:"child_public_key_length"`
	CanDeriveParent      bool   `json:"can_derive_parent"`
	Reason               string `json:"reason"`
}

// CannotDeriveParent checks that the proof, signature and public key recorded for childDID neither contain nor
// permit recovery of its parent DID.
func (r *Registry) CannotDeriveParent(childDID string) (*ParentDerivationReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	child, err := r.get(childDID)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDID, childDID)
	} else if err != nil {
		return nil, err
	}

	proof := child.Document.Proof
	if proof == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOwnershipProof, childDID)
	}

	parentDID, parentPub, err := r.parentOf(childDID)
	if err != nil {
		return nil, err
	}

	childPub, err := publicKeyOf(child.Document)
	if err != nil {
		childPub = nil
	}

	report := &ParentDerivationReport{ChildDID: childDID}

	report.Analysis.Proof = analyzeProof(proof, parentDID)
	report.Analysis.Signature = analyzeSignature(proof, parentDID, parentPub)
	report.Analysis.Key = analyzeKey(childPub, parentPub)

	report.Derivable = report.Analysis.Proof.ContainsParentDID ||
		report.Analysis.Signature.CanDeriveParent ||
		report.Analysis.Key.CanDeriveParent

	if report.Derivable {
		report.Conclusion = "Parent DID can be recovered from the child record"
	} else {
		report.Conclusion = "Parent DID cannot be calculated from child DID or its proof"
	}

	return report, nil
}

// parentOf finds the registered parent of childDID by scanning children lists. Must be called with the lock held.
func (r *Registry) parentOf(childDID string) (string, []byte, error) {
	var parentDID string

	var parentPub []byte

	err := r.each(func(id string, rec *record) bool {
		for _, c := range rec.Children {
			if c == childDID {
				parentDID = id
				parentPub, _ = publicKeyOf(rec.Document) //nolint:errcheck

				return false
			}
		}

		return true
	})

	return parentDID, parentPub, err
}

func analyzeProof(proof *did.Proof, parentDID string) ProofAnalysis {
	a := ProofAnalysis{
		ProofFields: proof.Fields(),
		Message:     "Proof only contains child DID reference, not parent DID",
	}

	if parentDID == "" {
		return a
	}

	parentUID := parentDID[strings.LastIndex(parentDID, ":")+1:]

	for _, v := range []string{proof.Type, proof.Created, proof.VerificationMethod, proof.ProofPurpose, proof.Child} {
		if strings.Contains(v, parentDID) || strings.Contains(v, parentUID) {
			a.ContainsParentDID = true
			a.Message = "Proof references the parent DID"

			break
		}
	}

	return a
}

func analyzeSignature(proof *did.Proof, parentDID string, parentPub []byte) SignatureAnalysis {
	a := SignatureAnalysis{Reason: "Signature is of proof object, not parent DID identifier"}

	sig := base58.Decode(proof.Signature)

	if parentDID != "" && bytes.Contains(sig, []byte(parentDID)) ||
		len(parentPub) > 0 && bytes.Contains(sig, parentPub) {
		a.CanDeriveParent = true
		a.Reason = "Signature bytes embed parent identifier material"
	}

	return a
}

func analyzeKey(childPub, parentPub []byte) KeyAnalysis {
	a := KeyAnalysis{
		ChildPublicKeyLength: len(childPub),
		Reason:               "Child's public key is cryptographically independent of parent's",
	}

	if len(childPub) > 0 && bytes.Equal(childPub, parentPub) {
		a.CanDeriveParent = true
		a.Reason = "Child reuses the parent's public key"
	}

	return a
}
