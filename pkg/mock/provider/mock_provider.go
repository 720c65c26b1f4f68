/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package provider

import (
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/idobjects/idobjects-framework-go/pkg/binder"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

// Provider mocks the framework context handed to controllers.
type Provider struct {
	StorageProviderValue storage.Provider
	SecretLockValue      secretlock.Service
	DIDRegistryValue     *idobjects.Registry
	KeyVDRValue          *key.VDR
	VDRegistryValue      *vdr.Registry
	DataObjectStoreValue *dostore.Store
	BinderValue          *binder.Binder
}

// StorageProvider returns the storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.StorageProviderValue
}

// SecretLock returns the secret lock service.
func (p *Provider) SecretLock() secretlock.Service {
	return p.SecretLockValue
}

// DIDRegistry returns the did:idobjects registry.
func (p *Provider) DIDRegistry() *idobjects.Registry {
	return p.DIDRegistryValue
}

// KeyVDR returns the did:key method.
func (p *Provider) KeyVDR() *key.VDR {
	return p.KeyVDRValue
}

// VDRegistry returns the vdr registry.
func (p *Provider) VDRegistry() *vdr.Registry {
	return p.VDRegistryValue
}

// DataObjectStore returns the data object record store.
func (p *Provider) DataObjectStore() *dostore.Store {
	return p.DataObjectStoreValue
}

// Binder returns the container binder.
func (p *Provider) Binder() *binder.Binder {
	return p.BinderValue
}
