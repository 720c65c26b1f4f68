/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataobject

import (
	"fmt"
	"io"
	"net/http"

	"github.com/idobjects/idobjects-framework-go/pkg/binder"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/command"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/command/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/internal/cmdutil"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/rest"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
)

// constants for data object operations.
const (
	DataObjectOperationID = "/idobjects/dataobject"
	SealDataObjectPath    = DataObjectOperationID + "/seal"
	VerifyDataObjectPath  = DataObjectOperationID + "/verify"
	GetDataObjectPath     = DataObjectOperationID + "/get"
	ListDataObjectsPath   = DataObjectOperationID + "/list"
	EncryptionKeyPath     = DataObjectOperationID + "/encryption-key"
)

// provider contains dependencies for the data object command and is typically created by using
// idobjects.Context().
type provider interface {
	VDRegistry() *vdr.Registry
	DataObjectStore() *dostore.Store
	Binder() *binder.Binder
}

type dataObjectCommand interface {
	SealDataObject(rw io.Writer, req io.Reader) command.Error
	VerifyDataObject(rw io.Writer, req io.Reader) command.Error
	GetDataObject(rw io.Writer, req io.Reader) command.Error
	ListDataObjects(rw io.Writer, req io.Reader) command.Error
	GenerateEncryptionKey(rw io.Writer, req io.Reader) command.Error
}

// Operation contains basic common operations provided by controller REST API.
type Operation struct {
	handlers []rest.Handler
	command  dataObjectCommand
}

// New returns new data object operations rest client instance.
func New(p provider, notifier command.Notifier) (*Operation, error) {
	cmd, err := dataobject.New(p, notifier)
	if err != nil {
		return nil, fmt.Errorf("new data object command : %w", err)
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this protocol service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(SealDataObjectPath, http.MethodPost, o.SealDataObject),
		cmdutil.NewHTTPHandler(VerifyDataObjectPath, http.MethodPost, o.VerifyDataObject),
		cmdutil.NewHTTPHandler(GetDataObjectPath, http.MethodPost, o.GetDataObject),
		cmdutil.NewHTTPHandler(ListDataObjectsPath, http.MethodPost, o.ListDataObjects),
		cmdutil.NewHTTPHandler(EncryptionKeyPath, http.MethodPost, o.GenerateEncryptionKey),
	}
}

// SealDataObject swagger:route POST /idobjects/dataobject/seal dataobject sealDataObjectReq
//
// Seals content or a container for a registered owner DID.
//
// Responses:
//    default: genericError
//        200: sealDataObjectRes
func (o *Operation) SealDataObject(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.SealDataObject, rw, req.Body)
}

// VerifyDataObject swagger:route POST /idobjects/dataobject/verify dataobject verifyDataObjectReq
//
// Verifies a stored data object against its container, owner and validity conditions.
//
// Responses:
//    default: genericError
//        200: verifyDataObjectRes
func (o *Operation) VerifyDataObject(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.VerifyDataObject, rw, req.Body)
}

// GetDataObject swagger:route POST /idobjects/dataobject/get dataobject getDataObjectReq
//
// Returns a stored data object record.
//
// Responses:
//    default: genericError
//        200: getDataObjectRes
func (o *Operation) GetDataObject(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetDataObject, rw, req.Body)
}

// ListDataObjects swagger:route POST /idobjects/dataobject/list dataobject listDataObjectsReq
//
// Lists stored data object records, newest first.
//
// Responses:
//    default: genericError
//        200: listDataObjectsRes
func (o *Operation) ListDataObjects(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.ListDataObjects, rw, req.Body)
}

// GenerateEncryptionKey swagger:route POST /idobjects/dataobject/encryption-key dataobject encryptionKeyReq
//
// Generates an RSA encryption keypair. The private key is not stored.
//
// Responses:
//    default: genericError
//        200: encryptionKeyRes
func (o *Operation) GenerateEncryptionKey(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GenerateEncryptionKey, rw, req.Body)
}
