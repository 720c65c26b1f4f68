/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package binder binds arbitrary containers (files, blobs) to a sealed data object of their owner.
//
// A bound container is identified by the SHA-256 of its bytes. The data object carries that hash in its content
// and the record store keeps it next to the object so that later verification detects any change to the
// container.
package binder

import (
	"bytes"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/idobjects/idobjects-framework-go/pkg/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/validity"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/verifier"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
)

const (
	// DefaultDataType of data objects created by the binder.
	DefaultDataType = "container_document"
	// DefaultExpirationDescription is attached to the default expiration condition.
	DefaultExpirationDescription = "Document expires in one year"

	sniffLen = 512
)

var logger = log.New("idobjects/binder")

// Content keys of a bound data object.
const (
	ContainerHashKey    = "container_hash"
	OriginalFilenameKey = "original_filename"
	MetadataKey         = "metadata"
)

type provider interface {
	DataObjectStore() *dostore.Store
}

// Binder seals containers into data objects and verifies them later.
type Binder struct {
	store *dostore.Store
	now   func() time.Time
}

// New returns a new binder backed by the data object store of ctx.
func New(ctx provider) (*Binder, error) {
	store := ctx.DataObjectStore()
	if store == nil {
		return nil, errors.New("data object store is required")
	}

	return &Binder{store: store, now: time.Now}, nil
}

type bindOpts struct {
	dataType   string
	mimeType   string
	conditions []validity.Condition
}

// BindOption configures a single Bind call.
type BindOption func(opts *bindOpts)

// WithDataType overrides DefaultDataType.
func WithDataType(dataType string) BindOption {
	return func(opts *bindOpts) {
		opts.dataType = dataType
	}
}

// WithMIMEType sets the container MIME type instead of detecting it from the first bytes.
func WithMIMEType(mimeType string) BindOption {
	return func(opts *bindOpts) {
		opts.mimeType = mimeType
	}
}

// WithValidityConditions replaces the default one year expiration.
func WithValidityConditions(conditions ...validity.Condition) BindOption {
	return func(opts *bindOpts) {
		opts.conditions = conditions
	}
}

// BindResult is the outcome of a successful Bind.
type BindResult struct {
	RecordID      string                 `json:"record_id"`
	ContainerHash string                 `json:"container_hash"`
	DataObject    *dataobject.DataObject `json:"data_object"`
}

// BindFile binds the file at path.
func (b *Binder) BindFile(path string, didDoc *did.Doc, ownerEncryptionKey *rsa.PublicKey,
	opts ...BindOption) (*BindResult, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}

	defer func() {
		if errClose := f.Close(); errClose != nil {
			logger.Warnf("failed to close container %s: %s", path, errClose)
		}
	}()

	return b.Bind(f, filepath.Base(path), didDoc, ownerEncryptionKey, opts...)
}

// Bind reads container to its end and binds it to the subject of didDoc.
func (b *Binder) Bind(container io.Reader, filename string, didDoc *did.Doc, ownerEncryptionKey *rsa.PublicKey,
	opts ...BindOption) (*BindResult, error) {
	if didDoc == nil || didDoc.ID == "" {
		return nil, errors.New("DID document is missing 'id' field")
	}

	now := b.now().UTC()

	options := &bindOpts{
		dataType:   DefaultDataType,
		conditions: []validity.Condition{validity.Expiration(now.AddDate(1, 0, 0), DefaultExpirationDescription)},
	}

	for _, opt := range opts {
		opt(options)
	}

	digest, err := hashContainer(container)
	if err != nil {
		return nil, err
	}

	mimeType := options.mimeType
	if mimeType == "" {
		mimeType = digest.mimeType
	}

	content := map[string]interface{}{
		ContainerHashKey:    digest.hash,
		OriginalFilenameKey: filename,
		MetadataKey: map[string]interface{}{
			"created_at": now.Format(time.RFC3339Nano),
			"file_size":  digest.size,
			"mime_type":  mimeType,
		},
	}

	obj, err := dataobject.Create(didDoc.ID, options.dataType, content, ownerEncryptionKey, options.conditions)
	if err != nil {
		return nil, fmt.Errorf("create data object: %w", err)
	}

	id, err := b.store.Save(obj, digest.hash, didDoc)
	if err != nil {
		return nil, err
	}

	logger.Infof("bound container %s to record %s", digest.hash, id)

	return &BindResult{RecordID: id, ContainerHash: digest.hash, DataObject: obj}, nil
}

// VerifyResult reports the outcome of Verify. Err holds the failure for callers that match it with errors.Is.
type VerifyResult struct {
	Valid            bool                   `json:"valid"`
	Error            string                 `json:"error,omitempty"`
	DataObject       *dataobject.DataObject `json:"data_object,omitempty"`
	DecryptedContent map[string]interface{} `json:"decrypted_content,omitempty"`
	Err              error                  `json:"-"`
}

func failed(err error) *VerifyResult {
	return &VerifyResult{Error: err.Error(), Err: err}
}

// VerifyFile verifies the file at path against the record recordID.
func (b *Binder) VerifyFile(recordID, path string, ownerEncryptionKey *rsa.PrivateKey, now time.Time) *VerifyResult {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return failed(fmt.Errorf("open container: %w", err))
	}

	defer func() {
		if errClose := f.Close(); errClose != nil {
			logger.Warnf("failed to close container %s: %s", path, errClose)
		}
	}()

	return b.Verify(recordID, f, ownerEncryptionKey, now)
}

// Verify re-hashes container and checks it against the record recordID: the container must be unchanged, the
// data object must belong to the DID recorded with it and be valid at now, and its content must decrypt with
// ownerEncryptionKey.
func (b *Binder) Verify(recordID string, container io.Reader, ownerEncryptionKey *rsa.PrivateKey,
	now time.Time) *VerifyResult {
	digest, err := hashContainer(container)
	if err != nil {
		return failed(err)
	}

	return b.VerifyHash(recordID, digest.hash, ownerEncryptionKey, now)
}

// VerifyHash is Verify for a caller that already hashed the container. Records sealed without a container
// carry an empty hash.
func (b *Binder) VerifyHash(recordID, containerHash string, ownerEncryptionKey *rsa.PrivateKey,
	now time.Time) *VerifyResult {
	rec, err := b.store.Get(recordID)
	if err != nil {
		return failed(err)
	}

	obj, err := rec.Object()
	if err != nil {
		return failed(err)
	}

	var ownerDID string
	if rec.DIDDocument != nil {
		ownerDID = rec.DIDDocument.ID
	}

	res, err := verifier.Verify(obj, &verifier.Params{
		ExpectedOwnerDID:      ownerDID,
		ExpectedContainerHash: rec.ContainerHash,
		CurrentContainerHash:  containerHash,
		OwnerPrivateKey:       ownerEncryptionKey,
		Now:                   now,
	})
	if err != nil {
		logger.Warnf("verification of record %s failed: %s", recordID, err)

		return failed(err)
	}

	return &VerifyResult{Valid: true, DataObject: res.DataObject, DecryptedContent: res.Content}
}

type containerDigest struct {
	hash     string
	size     int64
	mimeType string
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open container: %w", err)
	}

	defer func() {
		if errClose := f.Close(); errClose != nil {
			logger.Warnf("failed to close container %s: %s", path, errClose)
		}
	}()

	d, err := hashContainer(f)
	if err != nil {
		return "", err
	}

	return d.hash, nil
}

func hashContainer(r io.Reader) (*containerDigest, error) {
	if r == nil {
		return nil, errors.New("container is required")
	}

	h := sha256.New()
	head := &prefixBuffer{limit: sniffLen}

	n, err := io.Copy(io.MultiWriter(h, head), r)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}

	return &containerDigest{
		hash:     hex.EncodeToString(h.Sum(nil)),
		size:     n,
		mimeType: http.DetectContentType(head.Bytes()),
	}, nil
}

// prefixBuffer keeps the first limit bytes written to it.
type prefixBuffer struct {
	bytes.Buffer
	limit int
}

func (p *prefixBuffer) Write(b []byte) (int, error) {
	if remaining := p.limit - p.Len(); remaining > 0 {
		if len(b) > remaining {
			p.Buffer.Write(b[:remaining])
		} else {
			p.Buffer.Write(b)
		}
	}

	return len(b), nil
}
