/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didregistry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/idobjects/idobjects-framework-go/pkg/controller/command"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/internal/cmdutil"
	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
	"github.com/idobjects/idobjects-framework-go/pkg/internal/logutil"
	"github.com/idobjects/idobjects-framework-go/pkg/secretlock"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/idobjects"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

var logger = log.New("idobjects/command/didregistry")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.DIDRegistry)

	// CreateDIDErrorCode for create did error.
	CreateDIDErrorCode

	// CreateDIDKeyErrorCode for create did:key error.
	CreateDIDKeyErrorCode

	// ResolveDIDErrorCode for resolve did error.
	ResolveDIDErrorCode

	// ParentDerivationErrorCode for parent derivation report error.
	ParentDerivationErrorCode

	// ListDIDsErrorCode for list dids error.
	ListDIDsErrorCode
)

// constants for the DID registry controller's methods.
const (
	// command name.
	CommandName = "didregistry"

	// command methods.
	CreateDIDCommandMethod        = "CreateDID"
	CreateDIDKeyCommandMethod     = "CreateDIDKey"
	ResolveDIDCommandMethod       = "ResolveDID"
	VerifyOwnershipCommandMethod  = "VerifyOwnership"
	ParentDerivationCommandMethod = "ParentDerivation"
	ListDIDsCommandMethod         = "ListDIDs"

	// error messages.
	errEmptyDIDID          = "did is mandatory"
	errEmptyChildDID       = "child_did is mandatory"
	errEmptyParentDID      = "parent_did is mandatory"
	errEmptyParentKey      = "parent private key is mandatory"
	errParentKeyWithoutDID = "parent private key given without parent_did"

	// log constants.
	didID = "did"

	// Topic of the events published by this command.
	Topic = "didregistry"

	createdEvent = "created"
)

// provider contains dependencies for the DID registry controller command operations
// and is typically created by using idobjects.Context().
type provider interface {
	DIDRegistry() *idobjects.Registry
	KeyVDR() *key.VDR
	VDRegistry() *vdr.Registry
	SecretLock() secretlock.Service
}

// Command contains command operations provided by the DID registry controller.
type Command struct {
	ctx      provider
	notifier command.Notifier
}

// New returns new DID registry controller command instance. Creation events are published to notifier when it
// is not nil.
func New(ctx provider, notifier command.Notifier) (*Command, error) {
	if ctx.DIDRegistry() == nil || ctx.KeyVDR() == nil || ctx.VDRegistry() == nil {
		return nil, errors.New("did registry, did:key method and vdr registry are required")
	}

	return &Command{ctx: ctx, notifier: notifier}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, CreateDIDCommandMethod, o.CreateDID),
		cmdutil.NewCommandHandler(CommandName, CreateDIDKeyCommandMethod, o.CreateDIDKey),
		cmdutil.NewCommandHandler(CommandName, ResolveDIDCommandMethod, o.ResolveDID),
		cmdutil.NewCommandHandler(CommandName, VerifyOwnershipCommandMethod, o.VerifyOwnership),
		cmdutil.NewCommandHandler(CommandName, ParentDerivationCommandMethod, o.ParentDerivation),
		cmdutil.NewCommandHandler(CommandName, ListDIDsCommandMethod, o.ListDIDs),
	}
}

// CreateDID creates a did:idobjects DID.
func (o *Command) CreateDID(rw io.Writer, req io.Reader) command.Error {
	var request CreateDIDRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, CreateDIDCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	parent, cmdErr := o.parent(&request)
	if cmdErr != nil {
		return cmdErr
	}

	res, err := o.ctx.DIDRegistry().Create(parent)

	if parent != nil {
		wipe(parent.PrivateKey)
	}

	if err != nil {
		logutil.LogError(logger, CommandName, CreateDIDCommandMethod, "create did: "+err.Error(),
			logutil.CreateKeyValueString("parent", request.ParentDID))

		if errors.Is(err, idobjects.ErrUnknownParent) || errors.Is(err, idobjects.ErrParentKeyMismatch) ||
			errors.Is(err, keypair.ErrInvalidKey) {
			return command.NewValidationError(CreateDIDErrorCode, fmt.Errorf("create did: %w", err))
		}

		return command.NewExecuteError(CreateDIDErrorCode, fmt.Errorf("create did: %w", err))
	}

	kp, err := keypair.FromSeed(res.PrivateKey)
	wipe(res.PrivateKey)

	if err != nil {
		return command.NewExecuteError(CreateDIDErrorCode, fmt.Errorf("create did: %w", err))
	}

	defer kp.Wipe()

	response, err := o.createResponse(res.DID, res.Document, kp)
	if err != nil {
		logutil.LogError(logger, CommandName, CreateDIDCommandMethod, err.Error(),
			logutil.CreateKeyValueString(didID, res.DID))

		return command.NewExecuteError(CreateDIDErrorCode, err)
	}

	command.WriteNillableResponse(rw, response, logger)

	command.Notify(o.notifier, Topic, &Event{Event: createdEvent, DID: res.DID}, logger)

	logutil.LogDebug(logger, CommandName, CreateDIDCommandMethod, "success",
		logutil.CreateKeyValueString(didID, res.DID))

	return nil
}

// CreateDIDKey creates a did:key DID.
func (o *Command) CreateDIDKey(rw io.Writer, _ io.Reader) command.Error {
	kp, doc, err := o.ctx.KeyVDR().Create()
	if err != nil {
		logutil.LogError(logger, CommandName, CreateDIDKeyCommandMethod, "create did:key: "+err.Error())

		return command.NewExecuteError(CreateDIDKeyErrorCode, fmt.Errorf("create did:key: %w", err))
	}

	defer kp.Wipe()

	response, err := o.createResponse(doc.ID, doc, kp)
	if err != nil {
		logutil.LogError(logger, CommandName, CreateDIDKeyCommandMethod, err.Error(),
			logutil.CreateKeyValueString(didID, doc.ID))

		return command.NewExecuteError(CreateDIDKeyErrorCode, err)
	}

	command.WriteNillableResponse(rw, response, logger)

	command.Notify(o.notifier, Topic, &Event{Event: createdEvent, DID: doc.ID}, logger)

	logutil.LogDebug(logger, CommandName, CreateDIDKeyCommandMethod, "success",
		logutil.CreateKeyValueString(didID, doc.ID))

	return nil
}

// ResolveDID resolves a did:idobjects or did:key DID. Unregistered DIDs resolve to a document carrying the
// not-found marker.
func (o *Command) ResolveDID(rw io.Writer, req io.Reader) command.Error {
	var request DIDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, ResolveDIDCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.DID == "" {
		logutil.LogDebug(logger, CommandName, ResolveDIDCommandMethod, errEmptyDIDID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyDIDID))
	}

	doc, err := o.ctx.VDRegistry().Resolve(request.DID)
	if err != nil {
		logutil.LogError(logger, CommandName, ResolveDIDCommandMethod, "resolve did doc: "+err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		return command.NewValidationError(ResolveDIDErrorCode, fmt.Errorf("resolve did doc: %w", err))
	}

	command.WriteNillableResponse(rw, doc, logger)

	logutil.LogDebug(logger, CommandName, ResolveDIDCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// VerifyOwnership checks the ownership proof of a child DID against a parent DID. A failed check is a
// successful command with owned=false.
func (o *Command) VerifyOwnership(rw io.Writer, req io.Reader) command.Error {
	var request VerifyOwnershipRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, VerifyOwnershipCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.ChildDID == "" {
		logutil.LogDebug(logger, CommandName, VerifyOwnershipCommandMethod, errEmptyChildDID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyChildDID))
	}

	if request.ParentDID == "" {
		logutil.LogDebug(logger, CommandName, VerifyOwnershipCommandMethod, errEmptyParentDID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyParentDID))
	}

	owned := o.ctx.DIDRegistry().VerifyOwnership(request.ChildDID, request.ParentDID)
	if !owned {
		logutil.LogWarn(logger, CommandName, VerifyOwnershipCommandMethod, "ownership not verified",
			logutil.CreateKeyValueString("child", request.ChildDID),
			logutil.CreateKeyValueString("parent", request.ParentDID))
	}

	command.WriteNillableResponse(rw, &VerifyOwnershipResponse{Owned: owned}, logger)

	return nil
}

// ParentDerivation reports whether the parent of a DID can be recovered from the child record.
func (o *Command) ParentDerivation(rw io.Writer, req io.Reader) command.Error {
	var request DIDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, ParentDerivationCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.DID == "" {
		logutil.LogDebug(logger, CommandName, ParentDerivationCommandMethod, errEmptyDIDID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyDIDID))
	}

	report, err := o.ctx.DIDRegistry().CannotDeriveParent(request.DID)
	if err != nil {
		logutil.LogError(logger, CommandName, ParentDerivationCommandMethod, err.Error(),
			logutil.CreateKeyValueString(didID, request.DID))

		if errors.Is(err, idobjects.ErrUnknownDID) || errors.Is(err, idobjects.ErrNoOwnershipProof) {
			return command.NewValidationError(ParentDerivationErrorCode, err)
		}

		return command.NewExecuteError(ParentDerivationErrorCode, err)
	}

	command.WriteNillableResponse(rw, &ParentDerivationResponse{ParentDerivationReport: report}, logger)

	logutil.LogDebug(logger, CommandName, ParentDerivationCommandMethod, "success",
		logutil.CreateKeyValueString(didID, request.DID))

	return nil
}

// ListDIDs lists the DIDs registered in the controller's namespace.
func (o *Command) ListDIDs(rw io.Writer, _ io.Reader) command.Error {
	ids, err := o.ctx.DIDRegistry().List()
	if err != nil {
		logutil.LogError(logger, CommandName, ListDIDsCommandMethod, err.Error())

		return command.NewExecuteError(ListDIDsErrorCode, fmt.Errorf("list dids: %w", err))
	}

	if ids == nil {
		ids = []string{}
	}

	command.WriteNillableResponse(rw, &ListDIDsResponse{DIDs: ids}, logger)

	return nil
}

func (o *Command) parent(request *CreateDIDRequest) (*idobjects.Parent, command.Error) {
	hasKey := request.ParentPrivateKey != "" || request.ParentEncryptedPrivateKey != ""

	if request.ParentDID == "" {
		if hasKey {
			logutil.LogDebug(logger, CommandName, CreateDIDCommandMethod, errParentKeyWithoutDID)
			return nil, command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errParentKeyWithoutDID))
		}

		return nil, nil
	}

	if !hasKey {
		logutil.LogDebug(logger, CommandName, CreateDIDCommandMethod, errEmptyParentKey)
		return nil, command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyParentKey))
	}

	if request.ParentEncryptedPrivateKey != "" {
		kp, err := keypair.Import(request.ParentEncryptedPrivateKey, o.ctx.SecretLock(), request.ParentDID)
		if err != nil {
			logutil.LogInfo(logger, CommandName, CreateDIDCommandMethod, err.Error())
			return nil, command.NewValidationError(InvalidRequestErrorCode, err)
		}

		defer kp.Wipe()

		return &idobjects.Parent{DID: request.ParentDID, PrivateKey: kp.PrivateKey()}, nil
	}

	seed := base58.Decode(request.ParentPrivateKey)
	if len(seed) != keypair.SeedSize {
		logutil.LogDebug(logger, CommandName, CreateDIDCommandMethod, "invalid parent private key")

		return nil, command.NewValidationError(InvalidRequestErrorCode,
			fmt.Errorf("%w: parent private key must be %d base58 encoded bytes", keypair.ErrInvalidKey,
				keypair.SeedSize))
	}

	return &idobjects.Parent{DID: request.ParentDID, PrivateKey: seed}, nil
}

// createResponse exports the private key of kp with the secret lock when one is configured.
func (o *Command) createResponse(id string, doc *did.Doc, kp *keypair.KeyPair) (*CreateDIDResponse, error) {
	docBytes, err := doc.JSONBytes()
	if err != nil {
		return nil, fmt.Errorf("marshal did doc: %w", err)
	}

	response := &CreateDIDResponse{
		DID:         id,
		DIDDocument: docBytes,
		PublicKey:   key.EncodePublicKey(kp.PublicKey()),
	}

	if lock := o.ctx.SecretLock(); lock != nil {
		response.EncryptedPrivateKey, err = keypair.Export(kp, lock, id)
		if err != nil {
			return nil, err
		}

		return response, nil
	}

	seed := kp.PrivateKey()
	response.PrivateKey = base58.Encode(seed)
	wipe(seed)

	return response, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
