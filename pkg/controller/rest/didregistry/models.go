/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didregistry

import (
	"github.com/idobjects/idobjects-framework-go/pkg/controller/command/didregistry"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

// createDIDReq model
//
// This is used for creating a DID.
//
// swagger:parameters createDIDReq
type createDIDReq struct { // nolint: unused,deadcode
	// Params for creating a DID
	//
	// in: body
	didregistry.CreateDIDRequest
}

// createDIDRes model
//
// This is used for returning a created DID and its keys.
//
// swagger:response createDIDRes
type createDIDRes struct { // nolint: unused,deadcode

	// in: body
	didregistry.CreateDIDResponse
}

// resolveDIDReq model
//
// swagger:parameters resolveDIDReq
type resolveDIDReq struct { // nolint: unused,deadcode
	// in: body
	didregistry.DIDArg
}

// resolveDIDRes model
//
// This is used for returning a DID resolution.
//
// swagger:response resolveDIDRes
type resolveDIDRes struct { // nolint: unused,deadcode

	// in: body
	did.DocResolution
}

// verifyOwnershipReq model
//
// swagger:parameters verifyOwnershipReq
type verifyOwnershipReq struct { // nolint: unused,deadcode
	// in: body
	didregistry.VerifyOwnershipRequest
}

// verifyOwnershipRes model
//
// swagger:response verifyOwnershipRes
type verifyOwnershipRes struct { // nolint: unused,deadcode

	// in: body
	didregistry.VerifyOwnershipResponse
}

// parentDerivationReq model
//
// swagger:parameters parentDerivationReq
type parentDerivationReq struct { // nolint: unused,deadcode
	// in: body
	didregistry.DIDArg
}

// parentDerivationRes model
//
// This is used for returning the parent derivation report.
//
// swagger:response parentDerivationRes
type parentDerivationRes struct { // nolint: unused,deadcode

	// in: body
	didregistry.ParentDerivationResponse
}

// listDIDsRes model
//
// swagger:response listDIDsRes
type listDIDsRes struct { // nolint: unused,deadcode

	// in: body
	didregistry.ListDIDsResponse
}
