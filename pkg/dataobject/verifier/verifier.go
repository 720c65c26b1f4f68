/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifier runs the full data object verification: container integrity, owner binding, validity and
// decryption, stopping at the first failure.
package verifier

import (
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/idobjects/idobjects-framework-go/pkg/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/validity"
)

var logger = log.New("idobjects/dataobject/verifier")

var (
	// ErrIntegrity is returned when the current container hash differs from the recorded one.
	ErrIntegrity = errors.New("container hash mismatch")
	// ErrOwnershipMismatch is returned when the data object is not bound to the expected owner.
	ErrOwnershipMismatch = errors.New("data object is not owned by the expected DID")
	// ErrValidity is returned when the data object is inactive or a validity condition is violated.
	ErrValidity = errors.New("data object is not valid")
)

// Params are the inputs of a verification.
type Params struct {
	ExpectedOwnerDID      string
	ExpectedContainerHash string
	CurrentContainerHash  string
	OwnerPrivateKey       *rsa.PrivateKey
	// Now defaults to the current time.
	Now time.Time
}

// Result of a successful verification.
type Result struct {
	Content    map[string]interface{}
	DataObject *dataobject.DataObject
}

// ValidityError carries the violated condition. It matches ErrValidity with errors.Is.
type ValidityError struct {
	Violation *validity.Violation
}

func (e *ValidityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidity, e.Violation.Error())
}

// Is makes errors.Is(err, ErrValidity) true.
func (e *ValidityError) Is(target error) bool {
	return target == ErrValidity //nolint:errorlint
}

// Verify checks obj against p. Envelope errors from decryption are returned unchanged.
func Verify(obj *dataobject.DataObject, p *Params) (*Result, error) {
	if obj == nil || p == nil {
		return nil, errors.New("data object and parameters are required")
	}

	if subtle.ConstantTimeCompare([]byte(p.CurrentContainerHash), []byte(p.ExpectedContainerHash)) != 1 {
		logger.Debugf("container hash mismatch")

		return nil, ErrIntegrity
	}

	if !obj.VerifyOwner(p.ExpectedOwnerDID) {
		logger.Debugf("owner mismatch for %s", p.ExpectedOwnerDID)

		return nil, ErrOwnershipMismatch
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	if v := obj.Evaluate(now); v != nil {
		logger.Debugf("validity check failed: %s", v.Error())

		return nil, &ValidityError{Violation: v}
	}

	content, err := obj.Decrypt(p.OwnerPrivateKey)
	if err != nil {
		return nil, err
	}

	return &Result{Content: content, DataObject: obj}, nil
}
