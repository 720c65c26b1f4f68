/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didregistry

import (
	"fmt"
	"io"
	"net/http"

	"github.com/idobjects/idobjects-framework-go/pkg/controller/command"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/command/didregistry"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/internal/cmdutil"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/rest"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

// constants for DID registry operations.
const (
	DIDRegistryOperationID = "/idobjects/did"
	CreateDIDPath          = DIDRegistryOperationID + "/create"
	CreateDIDKeyPath       = DIDRegistryOperationID + "/create-key"
	ResolveDIDPath         = DIDRegistryOperationID + "/resolve"
	VerifyOwnershipPath    = DIDRegistryOperationID + "/verify-ownership"
	ParentDerivationPath   = DIDRegistryOperationID + "/parent-derivation"
	ListDIDsPath           = DIDRegistryOperationID + "/list"
)

// provider contains dependencies for the DID registry command and is typically created by using
// idobjects.Context().
type provider interface {
	DIDRegistry() *idobjects.Registry
	KeyVDR() *key.VDR
	VDRegistry() *vdr.Registry
	SecretLock() secretlock.Service
}

type didRegistryCommand interface {
	CreateDID(rw io.Writer, req io.Reader) command.Error
	CreateDIDKey(rw io.Writer, req io.Reader) command.Error
	ResolveDID(rw io.Writer, req io.Reader) command.Error
	VerifyOwnership(rw io.Writer, req io.Reader) command.Error
	ParentDerivation(rw io.Writer, req io.Reader) command.Error
	ListDIDs(rw io.Writer, req io.Reader) command.Error
}

// Operation contains basic common operations provided by controller REST API.
type Operation struct {
	handlers []rest.Handler
	command  didRegistryCommand
}

// New returns new DID registry operations rest client instance.
func New(p provider, notifier command.Notifier) (*Operation, error) {
	cmd, err := didregistry.New(p, notifier)
	if err != nil {
		return nil, fmt.Errorf("new did registry command : %w", err)
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
		cmdutil.NewHTTPHandler(CreateDIDPath, http.MethodPost, o.CreateDID),
		cmdutil.NewHTTPHandler(CreateDIDKeyPath, http.MethodPost, o.CreateDIDKey),
		cmdutil.NewHTTPHandler(ResolveDIDPath, http.MethodPost, o.ResolveDID),
		cmdutil.NewHTTPHandler(VerifyOwnershipPath, http.MethodPost, o.VerifyOwnership),
		cmdutil.NewHTTPHandler(ParentDerivationPath, http.MethodPost, o.ParentDerivation),
		cmdutil.NewHTTPHandler(ListDIDsPath, http.MethodGet, o.ListDIDs),
	}
}

// CreateDID swagger:route POST /idobjects/did/create didregistry createDIDReq
//
// Creates a did:idobjects DID, optionally as the child of a registered parent.
//
// Responses:
//    default: genericError
//        200: createDIDRes
func (o *Operation) CreateDID(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.CreateDID, rw, req.Body)
}

// CreateDIDKey swagger:route POST /idobjects/did/create-key didregistry createDIDKey
//
// Creates a did:key DID.
//
// Responses:
//    default: genericError
//        200: createDIDRes
func (o *Operation) CreateDIDKey(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.CreateDIDKey, rw, req.Body)
}

// ResolveDID swagger:route POST /idobjects/did/resolve didregistry resolveDIDReq
//
// Resolves a DID.
//
// Responses:
//    default: genericError
//        200: resolveDIDRes
func (o *Operation) ResolveDID(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.ResolveDID, rw, req.Body)
}

// VerifyOwnership swagger:route POST /idobjects/did/verify-ownership didregistry verifyOwnershipReq
//
// Verifies that a child DID carries a valid ownership proof of a parent DID.
//
// Responses:
//    default: genericError
//        200: verifyOwnershipRes
func (o *Operation) VerifyOwnership(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.VerifyOwnership, rw, req.Body)
}

// ParentDerivation swagger:route POST /idobjects/did/parent-derivation didregistry parentDerivationReq
//
// Reports whether the parent of a DID can be recovered from the child record.
//
// Responses:
//    default: genericError
//        200: parentDerivationRes
func (o *Operation) ParentDerivation(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.ParentDerivation, rw, req.Body)
}

// ListDIDs swagger:route GET /idobjects/did/list didregistry listDIDs
//
// Lists the registered DIDs.
//
// Responses:
//    default: genericError
//        200: listDIDsRes
func (o *Operation) ListDIDs(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.ListDIDs, rw, req.Body)
}
