/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataobject

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/idobjects/idobjects-framework-go/pkg/binder"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/command"
	"github.com/idobjects/idobjects-framework-go/pkg/controller/internal/cmdutil"
	"github.com/idobjects/idobjects-framework-go/pkg/crypto/envelope"
	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
	"github.com/idobjects/idobjects-framework-go/pkg/internal/logutil"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr"
)

var logger = log.New("idobjects/command/dataobject")

var errSave = errors.New("save data object")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.DataObject)

	// SealDataObjectErrorCode for seal data object error.
	SealDataObjectErrorCode

	// VerifyDataObjectErrorCode for verify data object error.
	VerifyDataObjectErrorCode

	// GetDataObjectErrorCode for get data object error.
	GetDataObjectErrorCode

	// ListDataObjectsErrorCode for list data objects error.
	ListDataObjectsErrorCode

	// GenerateEncryptionKeyErrorCode for generate encryption key error.
	GenerateEncryptionKeyErrorCode
)

// constants for the data object controller's methods.
const (
	// command name.
	CommandName = "dataobject"

	// command methods.
	SealDataObjectCommandMethod        = "SealDataObject"
	VerifyDataObjectCommandMethod      = "VerifyDataObject"
	GetDataObjectCommandMethod         = "GetDataObject"
	ListDataObjectsCommandMethod       = "ListDataObjects"
	GenerateEncryptionKeyCommandMethod = "GenerateEncryptionKey"

	// DefaultDataType of sealed content.
	DefaultDataType = "data"

	// Topic of the events published by this command.
	Topic = "dataobject"

	sealedEvent   = "sealed"
	verifiedEvent = "verified"

	defaultListLimit = 100

	// error messages.
	errEmptyOwnerDID      = "owner_did is mandatory"
	errEmptyPublicKey     = "encryption_public_key is mandatory"
	errEmptyPrivateKey    = "encryption_private_key is mandatory"
	errEmptyID            = "id is mandatory"
	errEmptyContent       = "content or container is mandatory"
	errContainerAndHash   = "container and container_hash are mutually exclusive"
	errOwnerNotRegistered = "owner DID is not registered"

	// log constants.
	recordID = "id"
	ownerDID = "owner"
)

// provider contains dependencies for the data object controller command operations
// and is typically created by using idobjects.Context().
type provider interface {
	VDRegistry() *vdr.Registry
	DataObjectStore() *dostore.Store
	Binder() *binder.Binder
}

// Command contains command operations provided by the data object controller.
type Command struct {
	ctx      provider
	notifier command.Notifier
	now      func() time.Time
}

// New returns new data object controller command instance. Seal and verify events are published to notifier
// when it is not nil.
func New(ctx provider, notifier command.Notifier) (*Command, error) {
	if ctx.VDRegistry() == nil || ctx.DataObjectStore() == nil || ctx.Binder() == nil {
		return nil, errors.New("vdr registry, data object store and binder are required")
	}

	return &Command{ctx: ctx, notifier: notifier, now: time.Now}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, SealDataObjectCommandMethod, o.SealDataObject),
		cmdutil.NewCommandHandler(CommandName, VerifyDataObjectCommandMethod, o.VerifyDataObject),
		cmdutil.NewCommandHandler(CommandName, GetDataObjectCommandMethod, o.GetDataObject),
		cmdutil.NewCommandHandler(CommandName, ListDataObjectsCommandMethod, o.ListDataObjects),
		cmdutil.NewCommandHandler(CommandName, GenerateEncryptionKeyCommandMethod, o.GenerateEncryptionKey),
	}
}

// SealDataObject seals content or a container for a registered owner DID and stores the record.
func (o *Command) SealDataObject(rw io.Writer, req io.Reader) command.Error {
	var request SealDataObjectRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, SealDataObjectCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateSealRequest(&request); cmdErr != nil {
		return cmdErr
	}

	pub, err := envelope.ParsePublicKeyPEM([]byte(request.EncryptionPublicKey))
	if err != nil {
		logutil.LogInfo(logger, CommandName, SealDataObjectCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("encryption_public_key: %w", err))
	}

	ownerDoc, cmdErr := o.resolveOwner(request.OwnerDID)
	if cmdErr != nil {
		return cmdErr
	}

	var response *SealDataObjectResponse

	if request.Container != nil {
		response, err = o.bind(&request, ownerDoc, pub)
	} else {
		response, err = o.seal(&request, ownerDoc, pub)
	}

	if err != nil {
		logutil.LogError(logger, CommandName, SealDataObjectCommandMethod, err.Error(),
			logutil.CreateKeyValueString(ownerDID, request.OwnerDID))

		if errors.Is(err, keypair.ErrEntropy) || errors.Is(err, errSave) {
			return command.NewExecuteError(SealDataObjectErrorCode, err)
		}

		return command.NewValidationError(SealDataObjectErrorCode, err)
	}

	command.WriteNillableResponse(rw, response, logger)

	command.Notify(o.notifier, Topic, &Event{
		Event:         sealedEvent,
		ID:            response.ID,
		ContainerHash: response.ContainerHash,
	}, logger)

	logutil.LogDebug(logger, CommandName, SealDataObjectCommandMethod, "success",
		logutil.CreateKeyValueString(recordID, response.ID))

	return nil
}

// VerifyDataObject runs the full verification of a stored data object. A failed verification is a successful
// command with valid=false and the reason in error.
func (o *Command) VerifyDataObject(rw io.Writer, req io.Reader) command.Error {
	var request VerifyDataObjectRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, VerifyDataObjectCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if cmdErr := validateVerifyRequest(&request); cmdErr != nil {
		return cmdErr
	}

	priv, err := envelope.ParsePrivateKeyPEM([]byte(request.EncryptionPrivateKey))
	if err != nil {
		logutil.LogInfo(logger, CommandName, VerifyDataObjectCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("encryption_private_key: %w", err))
	}

	now := o.now()

	if request.Now != "" {
		now, err = time.Parse(time.RFC3339Nano, request.Now)
		if err != nil {
			logutil.LogInfo(logger, CommandName, VerifyDataObjectCommandMethod, err.Error())
			return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("now: %w", err))
		}
	}

	var result *binder.VerifyResult

	if request.Container != nil {
		result = o.ctx.Binder().Verify(request.ID, bytes.NewReader(request.Container), priv, now)
	} else {
		result = o.ctx.Binder().VerifyHash(request.ID, request.ContainerHash, priv, now)
	}

	if errors.Is(result.Err, dostore.ErrNotFound) {
		logutil.LogInfo(logger, CommandName, VerifyDataObjectCommandMethod, result.Error,
			logutil.CreateKeyValueString(recordID, request.ID))

		return command.NewValidationError(VerifyDataObjectErrorCode, result.Err)
	}

	response := &VerifyDataObjectResponse{
		Valid:            result.Valid,
		Error:            result.Error,
		DecryptedContent: result.DecryptedContent,
	}

	if result.DataObject != nil {
		response.DataObject, err = json.Marshal(result.DataObject)
		if err != nil {
			return command.NewExecuteError(VerifyDataObjectErrorCode, err)
		}
	}

	if !result.Valid {
		logutil.LogWarn(logger, CommandName, VerifyDataObjectCommandMethod, result.Error,
			logutil.CreateKeyValueString(recordID, request.ID))
	}

	command.WriteNillableResponse(rw, response, logger)

	valid := result.Valid

	command.Notify(o.notifier, Topic, &Event{
		Event: verifiedEvent,
		ID:    request.ID,
		Valid: &valid,
		Error: result.Error,
	}, logger)

	return nil
}

// GetDataObject returns a stored record.
func (o *Command) GetDataObject(rw io.Writer, req io.Reader) command.Error {
	var request IDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, GetDataObjectCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.ID == "" {
		logutil.LogDebug(logger, CommandName, GetDataObjectCommandMethod, errEmptyID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyID))
	}

	rec, err := o.ctx.DataObjectStore().Get(request.ID)
	if err != nil {
		logutil.LogError(logger, CommandName, GetDataObjectCommandMethod, "get data object: "+err.Error(),
			logutil.CreateKeyValueString(recordID, request.ID))

		if errors.Is(err, dostore.ErrNotFound) {
			return command.NewValidationError(GetDataObjectErrorCode, fmt.Errorf("get data object: %w", err))
		}

		return command.NewExecuteError(GetDataObjectErrorCode, fmt.Errorf("get data object: %w", err))
	}

	command.WriteNillableResponse(rw, rec, logger)

	logutil.LogDebug(logger, CommandName, GetDataObjectCommandMethod, "success",
		logutil.CreateKeyValueString(recordID, request.ID))

	return nil
}

// ListDataObjects returns stored records, newest first.
func (o *Command) ListDataObjects(rw io.Writer, req io.Reader) command.Error {
	var request ListDataObjectsRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil && !errors.Is(err, io.EOF) {
		logutil.LogInfo(logger, CommandName, ListDataObjectsCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	limit := request.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var records []*dostore.Record

	if request.OwnerDID != "" {
		records, err = o.ctx.DataObjectStore().ListByOwner(request.OwnerDID, limit)
	} else {
		records, err = o.ctx.DataObjectStore().List(limit)
	}

	if err != nil {
		logutil.LogError(logger, CommandName, ListDataObjectsCommandMethod, err.Error())

		return command.NewExecuteError(ListDataObjectsErrorCode, fmt.Errorf("list data objects: %w", err))
	}

	if records == nil {
		records = []*dostore.Record{}
	}

	command.WriteNillableResponse(rw, &ListDataObjectsResponse{Results: records}, logger)

	return nil
}

// GenerateEncryptionKey generates an RSA keypair for sealing data objects. The private key is returned to the
// caller and never stored.
func (o *Command) GenerateEncryptionKey(rw io.Writer, req io.Reader) command.Error {
	var request GenerateEncryptionKeyRequest

	err := json.NewDecoder(req).Decode(&request)
	if err != nil && !errors.Is(err, io.EOF) {
		logutil.LogInfo(logger, CommandName, GenerateEncryptionKeyCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	bits := request.Bits
	if bits == 0 {
		bits = envelope.DefaultRSAKeySize
	}

	priv, err := envelope.GenerateKey(bits)
	if err != nil {
		logutil.LogError(logger, CommandName, GenerateEncryptionKeyCommandMethod, err.Error())

		if errors.Is(err, keypair.ErrEntropy) {
			return command.NewExecuteError(GenerateEncryptionKeyErrorCode, err)
		}

		return command.NewValidationError(GenerateEncryptionKeyErrorCode, err)
	}

	pubPEM, err := envelope.MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return command.NewExecuteError(GenerateEncryptionKeyErrorCode, err)
	}

	privPEM, err := envelope.MarshalPrivateKeyPEM(priv)
	if err != nil {
		return command.NewExecuteError(GenerateEncryptionKeyErrorCode, err)
	}

	command.WriteNillableResponse(rw, &GenerateEncryptionKeyResponse{
		PublicKey:  string(pubPEM),
		PrivateKey: string(privPEM),
	}, logger)

	return nil
}

func (o *Command) resolveOwner(id string) (*did.Doc, command.Error) {
	res, err := o.ctx.VDRegistry().Resolve(id)
	if err != nil {
		logutil.LogInfo(logger, CommandName, SealDataObjectCommandMethod, "resolve owner: "+err.Error(),
			logutil.CreateKeyValueString(ownerDID, id))

		return nil, command.NewValidationError(SealDataObjectErrorCode, fmt.Errorf("resolve owner: %w", err))
	}

	if !res.Found() {
		logutil.LogInfo(logger, CommandName, SealDataObjectCommandMethod, errOwnerNotRegistered,
			logutil.CreateKeyValueString(ownerDID, id))

		return nil, command.NewValidationError(SealDataObjectErrorCode, fmt.Errorf("%s: %s", errOwnerNotRegistered, id))
	}

	return res.DIDDocument, nil
}

func (o *Command) bind(request *SealDataObjectRequest, ownerDoc *did.Doc,
	pub *rsa.PublicKey) (*SealDataObjectResponse, error) {
	var opts []binder.BindOption

	if request.DataType != "" {
		opts = append(opts, binder.WithDataType(request.DataType))
	}

	if request.MIMEType != "" {
		opts = append(opts, binder.WithMIMEType(request.MIMEType))
	}

	if len(request.ValidityConditions) > 0 {
		opts = append(opts, binder.WithValidityConditions(request.ValidityConditions...))
	}

	res, err := o.ctx.Binder().Bind(bytes.NewReader(request.Container), request.Filename, ownerDoc, pub, opts...)
	if err != nil {
		return nil, fmt.Errorf("bind container: %w", err)
	}

	return newSealResponse(res.RecordID, res.ContainerHash, res.DataObject)
}

func (o *Command) seal(request *SealDataObjectRequest, ownerDoc *did.Doc,
	pub *rsa.PublicKey) (*SealDataObjectResponse, error) {
	dataType := request.DataType
	if dataType == "" {
		dataType = DefaultDataType
	}

	obj, err := dataobject.Create(ownerDoc.ID, dataType, request.Content, pub, request.ValidityConditions)
	if err != nil {
		return nil, fmt.Errorf("create data object: %w", err)
	}

	id, err := o.ctx.DataObjectStore().Save(obj, "", ownerDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errSave, err)
	}

	return newSealResponse(id, "", obj)
}

func newSealResponse(id, containerHash string, obj *dataobject.DataObject) (*SealDataObjectResponse, error) {
	objBytes, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	return &SealDataObjectResponse{ID: id, ContainerHash: containerHash, DataObject: objBytes}, nil
}

func validateSealRequest(request *SealDataObjectRequest) command.Error {
	switch {
	case request.OwnerDID == "":
		logutil.LogDebug(logger, CommandName, SealDataObjectCommandMethod, errEmptyOwnerDID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyOwnerDID))
	case request.EncryptionPublicKey == "":
		logutil.LogDebug(logger, CommandName, SealDataObjectCommandMethod, errEmptyPublicKey)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyPublicKey))
	case request.Content == nil && request.Container == nil:
		logutil.LogDebug(logger, CommandName, SealDataObjectCommandMethod, errEmptyContent)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyContent))
	}

	return nil
}

func validateVerifyRequest(request *VerifyDataObjectRequest) command.Error {
	switch {
	case request.ID == "":
		logutil.LogDebug(logger, CommandName, VerifyDataObjectCommandMethod, errEmptyID)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyID))
	case request.EncryptionPrivateKey == "":
		logutil.LogDebug(logger, CommandName, VerifyDataObjectCommandMethod, errEmptyPrivateKey)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyPrivateKey))
	case request.Container != nil && request.ContainerHash != "":
		logutil.LogDebug(logger, CommandName, VerifyDataObjectCommandMethod, errContainerAndHash)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errContainerAndHash))
	}

	return nil
}
