/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context creates a framework Provider context holding the idobjects services and provides simple
// accessor methods to those same services.
package context

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/idobjects/idobjects-framework-go/pkg/binder"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

// Provider supplies the framework configuration to client objects.
type Provider struct {
	storeProvider   storage.Provider
	secretLock      secretlock.Service
	didRegistry     *idobjects.Registry
	keyVDR          *key.VDR
	vdr             *vdr.Registry
	dataObjectStore *dostore.Store
	binder          *binder.Binder
}

// ProviderOption configures the framework.
type ProviderOption func(opts *Provider) error

// New instantiates a new context provider.
func New(opts ...ProviderOption) (*Provider, error) {
	ctxProvider := Provider{}

	for _, opt := range opts {
		err := opt(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("option failed: %w", err)
		}
	}

	return &ctxProvider, nil
}

// StorageProvider return a storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.storeProvider
}

// SecretLock returns the secret lock protecting exported private keys. It is nil when keys are returned in the
// clear.
func (p *Provider) SecretLock() secretlock.Service {
	return p.secretLock
}

// DIDRegistry returns the did:idobjects registry.
func (p *Provider) DIDRegistry() *idobjects.Registry {
	return p.didRegistry
}

// KeyVDR returns the did:key method.
func (p *Provider) KeyVDR() *key.VDR {
	return p.keyVDR
}

// VDRegistry returns the method dispatching DID resolver.
func (p *Provider) VDRegistry() *vdr.Registry {
	return p.vdr
}

// DataObjectStore returns the data object record store.
func (p *Provider) DataObjectStore() *dostore.Store {
	return p.dataObjectStore
}

// Binder returns the container binder.
func (p *Provider) Binder() *binder.Binder {
	return p.binder
}

// WithStorageProvider injects a storage provider into the context.
func WithStorageProvider(s storage.Provider) ProviderOption {
	return func(opts *Provider) error {
		opts.storeProvider = s
		return nil
	}
}

// WithSecretLock injects a secret lock service into the context.
func WithSecretLock(s secretlock.Service) ProviderOption {
	return func(opts *Provider) error {
		opts.secretLock = s
		return nil
	}
}

// WithDIDRegistry injects the did:idobjects registry into the context.
func WithDIDRegistry(r *idobjects.Registry) ProviderOption {
	return func(opts *Provider) error {
		opts.didRegistry = r
		return nil
	}
}

// WithKeyVDR injects the did:key method into the context.
func WithKeyVDR(v *key.VDR) ProviderOption {
	return func(opts *Provider) error {
		opts.keyVDR = v
		return nil
	}
}

// WithVDRegistry injects a VDR registry into the context.
func WithVDRegistry(v *vdr.Registry) ProviderOption {
	return func(opts *Provider) error {
		opts.vdr = v
		return nil
	}
}

// WithDataObjectStore injects the data object record store into the context.
func WithDataObjectStore(s *dostore.Store) ProviderOption {
	return func(opts *Provider) error {
		opts.dataObjectStore = s
		return nil
	}
}

// WithBinder injects the container binder into the context.
func WithBinder(b *binder.Binder) ProviderOption {
	return func(opts *Provider) error {
		opts.binder = b
		return nil
	}
}
