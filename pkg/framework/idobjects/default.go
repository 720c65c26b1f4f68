/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package idobjects

import (
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"

	didregistry "github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
)

// defFrameworkOpts provides default framework options.
func defFrameworkOpts(frameworkOpts *IDObjects) error {
	if frameworkOpts.storeProvider == nil {
		frameworkOpts.storeProvider = mem.NewProvider()
	}

	if frameworkOpts.namespace == "" {
		frameworkOpts.namespace = didregistry.DefaultNamespace
	}

	return nil
}
