/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataobject

import (
	"github.com/idobjects/idobjects-framework-go/pkg/controller/command/dataobject"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
)

// sealDataObjectReq model
//
// This is used for sealing a data object.
//
// swagger:parameters sealDataObjectReq
type sealDataObjectReq struct { // nolint: unused,deadcode
	// Params for sealing a data object
	//
	// in: body
	dataobject.SealDataObjectRequest
}

// sealDataObjectRes model
//
// This is used for returning the stored record id and the sealed data object.
//
// swagger:response sealDataObjectRes
type sealDataObjectRes struct { // nolint: unused,deadcode

	// in: body
	dataobject.SealDataObjectResponse
}

// verifyDataObjectReq model
//
// swagger:parameters verifyDataObjectReq
type verifyDataObjectReq struct { // nolint: unused,deadcode
	// in: body
	dataobject.VerifyDataObjectRequest
}

// verifyDataObjectRes model
//
// This is used for returning the verification outcome. A failed verification has valid=false and the reason
// in error.
//
// swagger:response verifyDataObjectRes
type verifyDataObjectRes struct { // nolint: unused,deadcode

	// in: body
	dataobject.VerifyDataObjectResponse
}

// getDataObjectReq model
//
// swagger:parameters getDataObjectReq
type getDataObjectReq struct { // nolint: unused,deadcode
	// in: body
	dataobject.IDArg
}

// getDataObjectRes model
//
// swagger:response getDataObjectRes
type getDataObjectRes struct { // nolint: unused,deadcode

	// in: body
	dostore.Record
}

// listDataObjectsReq model
//
// swagger:parameters listDataObjectsReq
type listDataObjectsReq struct { // nolint: unused,deadcode
	// in: body
	dataobject.ListDataObjectsRequest
}

// listDataObjectsRes model
//
// swagger:response listDataObjectsRes
type listDataObjectsRes struct { // nolint: unused,deadcode

	// in: body
	dataobject.ListDataObjectsResponse
}

// encryptionKeyReq model
//
// swagger:parameters encryptionKeyReq
type encryptionKeyReq struct { // nolint: unused,deadcode
	// in: body
	dataobject.GenerateEncryptionKeyRequest
}

// encryptionKeyRes model
//
// This is used for returning a PEM encoded RSA keypair.
//
// swagger:response encryptionKeyRes
type encryptionKeyRes struct { // nolint: unused,deadcode

	// in: body
	dataobject.GenerateEncryptionKeyResponse
}
