/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr dispatches DID resolution to the DID method that accepts it.
package vdr

import (
	"errors"
	"fmt"

	diddoc "github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

// ErrUnsupportedMethod is returned when no registered method accepts a DID.
var ErrUnsupportedMethod = errors.New("did method not supported")

// VDR is a DID method implementation.
type VDR interface {
	Accept(method string) bool
	Read(did string) (*diddoc.DocResolution, error)
}

// Option is a vdr instance option.
type Option func(opts *Registry)

// WithVDR adds did method implementation for store.
func WithVDR(method VDR) Option {
	return func(opts *Registry) {
		opts.vdr = append(opts.vdr, method)
	}
}

// Registry vdr registry.
type Registry struct {
	vdr []VDR
}

// New return new instance of vdr.
func New(opts ...Option) *Registry {
	baseVDR := &Registry{}

	for _, opt := range opts {
		opt(baseVDR)
	}

	return baseVDR
}

// Resolve did document.
func (r *Registry) Resolve(did string) (*diddoc.DocResolution, error) {
	didMethod, err := diddoc.GetDIDMethod(did)
	if err != nil {
		return nil, err
	}

	method, err := r.resolveVDR(didMethod)
	if err != nil {
		return nil, err
	}

	didDocResolution, err := method.Read(did)
	if err != nil {
		return nil, fmt.Errorf("did method read failed: %w", err)
	}

	return didDocResolution, nil
}

func (r *Registry) resolveVDR(method string) (VDR, error) {
	for _, v := range r.vdr {
		if v.Accept(method) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}
