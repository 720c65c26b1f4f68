/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package idobjects wires the DID registry, resolvers, data object store and container binder into one
// framework whose context is handed to controllers.
package idobjects

import (
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/idobjects/idobjects-framework-go/pkg/binder"
	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/framework/context"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
	didregistry "github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

// IDObjects provides access to the context being managed by the framework. The context can be used to create
// controllers and clients.
type IDObjects struct {
	storeProvider   storage.Provider
	secretLock      secretlock.Service
	namespace       string
	registryOpts    []didregistry.Option
	didRegistry     *didregistry.Registry
	keyVDR          *key.VDR
	vdrRegistry     *vdr.Registry
	additionalVDRs  []vdr.VDR
	dataObjectStore *dostore.Store
	binder          *binder.Binder
}

// Option configures the framework.
type Option func(opts *IDObjects) error

// New initializes the framework based on the set of options provided. Services that are not configured get an
// in-memory default.
func New(opts ...Option) (*IDObjects, error) {
	frameworkOpts := &IDObjects{}

	for _, option := range opts {
		err := option(frameworkOpts)
		if err != nil {
			closeErr := frameworkOpts.Close()
			return nil, fmt.Errorf("close err: %v Error in option passed to New: %w", closeErr, err)
		}
	}

	err := defFrameworkOpts(frameworkOpts)
	if err != nil {
		return nil, fmt.Errorf("default option initialization failed: %w", err)
	}

	return initializeServices(frameworkOpts)
}

func initializeServices(frameworkOpts *IDObjects) (*IDObjects, error) {
	// Order of initializing service is important:
	// the binder depends on the data object store.
	if e := createDIDRegistry(frameworkOpts); e != nil {
		return nil, e
	}

	createVDR(frameworkOpts)

	if e := createDataObjectStore(frameworkOpts); e != nil {
		return nil, e
	}

	if e := createBinder(frameworkOpts); e != nil {
		return nil, e
	}

	return frameworkOpts, nil
}

// WithStoreProvider injects a storage provider to the framework.
func WithStoreProvider(prov storage.Provider) Option {
	return func(opts *IDObjects) error {
		opts.storeProvider = prov
		return nil
	}
}

// WithSecretLock injects the secret lock used to protect exported private keys. Without it private keys are
// returned base58 encoded.
func WithSecretLock(s secretlock.Service) Option {
	return func(opts *IDObjects) error {
		opts.secretLock = s
		return nil
	}
}

// WithNamespace sets the did:idobjects namespace.
func WithNamespace(namespace string) Option {
	return func(opts *IDObjects) error {
		opts.namespace = namespace
		return nil
	}
}

// WithDisclosedParentKeyReference makes ownership proofs reference the parent's key.
func WithDisclosedParentKeyReference() Option {
	return func(opts *IDObjects) error {
		opts.registryOpts = append(opts.registryOpts, didregistry.WithDisclosedParentKeyReference())
		return nil
	}
}

// WithKeyGenerator overrides the keypair generator of the DID registry.
func WithKeyGenerator(gen func() (*keypair.KeyPair, error)) Option {
	return func(opts *IDObjects) error {
		opts.registryOpts = append(opts.registryOpts, didregistry.WithKeyGenerator(gen))
		return nil
	}
}

// WithClock overrides the clock of the DID registry.
func WithClock(now func() time.Time) Option {
	return func(opts *IDObjects) error {
		opts.registryOpts = append(opts.registryOpts, didregistry.WithClock(now))
		return nil
	}
}

// WithVDR adds a DID method to the resolver in addition to did:idobjects and did:key.
func WithVDR(v vdr.VDR) Option {
	return func(opts *IDObjects) error {
		opts.additionalVDRs = append(opts.additionalVDRs, v)
		return nil
	}
}

// Context provides a handle to the framework context.
func (a *IDObjects) Context() (*context.Provider, error) {
	return context.New(
		context.WithStorageProvider(a.storeProvider),
		context.WithSecretLock(a.secretLock),
		context.WithDIDRegistry(a.didRegistry),
		context.WithKeyVDR(a.keyVDR),
		context.WithVDRegistry(a.vdrRegistry),
		context.WithDataObjectStore(a.dataObjectStore),
		context.WithBinder(a.binder),
	)
}

// Close frees resources being maintained by the framework.
func (a *IDObjects) Close() error {
	if a.storeProvider != nil {
		err := a.storeProvider.Close()
		if err != nil {
			return fmt.Errorf("failed to close the store: %w", err)
		}
	}

	return nil
}

func createDIDRegistry(frameworkOpts *IDObjects) error {
	opts := append([]didregistry.Option{
		didregistry.WithStorageProvider(frameworkOpts.storeProvider),
		didregistry.WithNamespace(frameworkOpts.namespace),
	}, frameworkOpts.registryOpts...)

	registry, err := didregistry.New(opts...)
	if err != nil {
		return fmt.Errorf("create DID registry failed: %w", err)
	}

	frameworkOpts.didRegistry = registry

	return nil
}

func createVDR(frameworkOpts *IDObjects) {
	frameworkOpts.keyVDR = key.New()

	opts := []vdr.Option{
		vdr.WithVDR(frameworkOpts.didRegistry),
		vdr.WithVDR(frameworkOpts.keyVDR),
	}

	for _, v := range frameworkOpts.additionalVDRs {
		opts = append(opts, vdr.WithVDR(v))
	}

	frameworkOpts.vdrRegistry = vdr.New(opts...)
}

func createDataObjectStore(frameworkOpts *IDObjects) error {
	ctx, err := context.New(context.WithStorageProvider(frameworkOpts.storeProvider))
	if err != nil {
		return fmt.Errorf("create context failed: %w", err)
	}

	frameworkOpts.dataObjectStore, err = dostore.New(ctx)
	if err != nil {
		return fmt.Errorf("create data object store failed: %w", err)
	}

	return nil
}

func createBinder(frameworkOpts *IDObjects) error {
	ctx, err := context.New(context.WithDataObjectStore(frameworkOpts.dataObjectStore))
	if err != nil {
		return fmt.Errorf("create context failed: %w", err)
	}

	frameworkOpts.binder, err = binder.New(ctx)
	if err != nil {
		return fmt.Errorf("create binder failed: %w", err)
	}

	return nil
}
