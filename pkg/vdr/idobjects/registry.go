/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package idobjects implements the did:idobjects method: a namespaced, hierarchical DID registry in which a
// parent DID signs an ownership proof into every child it issues.
//
//	did:idobjects:<namespace>:<uid>, uid = base58(sha256(publicKey)[0:8])
//
// The registry persists documents and children lists through a storage provider and never keeps
// private key material.
package idobjects

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

var logger = log.New("idobjects/vdr/idobjects")

const (
	// DIDMethod is the did:idobjects method name.
	DIDMethod = "idobjects"
	// DefaultNamespace is used when no namespace option is given.
	DefaultNamespace = "main"
	// StoreName is the name of the store holding registry records.
	StoreName = "idobjects_did_registry"

	// ExtensionContext is the JSON-LD vocabulary of idobjects documents.
	ExtensionContext = "https://w3id.org/idobjects#"

	namespaceTagName    = "namespace"
	keyFragment         = "keys-1"
	uidSize             = 8
	maxCollisionRetries = 3
)

var (
	// ErrUnknownParent is returned when a child is requested for a parent that is not registered.
	ErrUnknownParent = errors.New("parent DID is not registered")
	// ErrParentKeyMismatch is returned when the parent private key does not match the registered public key.
	ErrParentKeyMismatch = errors.New("parent private key does not match registered key")
	// ErrDIDCollision is returned when every generated DID was already registered.
	ErrDIDCollision = errors.New("generated DID collides with a registered DID")
	// ErrUnknownDID is returned by diagnostics on a DID that is not registered.
	ErrUnknownDID = errors.New("DID is not registered")
	// ErrNoOwnershipProof is returned by diagnostics on a DID that has no parent.
	ErrNoOwnershipProof = errors.New("no ownership proof found")
)

var namespaceRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Parent identifies the parent of a DID being created. PrivateKey is the raw 32 byte Ed25519 private key; the
// registry uses it for one signature and does not keep it.
type Parent struct {
	DID        string
	PrivateKey []byte
}

// CreateResult is returned by Create. The caller is responsible for the private key from here on.
type CreateResult struct {
	DID        string
	Document   *did.Doc
	PrivateKey []byte
	PublicKey  []byte
}

type record struct {
	Document *did.Doc `json:"document"`
	Children []string `json:"children"`
}

// Option configures the registry.
type Option func(r *Registry)

// WithNamespace sets the namespace DIDs are issued in.
func WithNamespace(namespace string) Option {
	return func(r *Registry) {
		r.namespace = namespace
	}
}

// WithStorageProvider sets the provider records are persisted with. Defaults to an in-memory provider.
func WithStorageProvider(p storage.Provider) Option {
	return func(r *Registry) {
		r.storeProvider = p
	}
}

// WithKeyGenerator replaces the keypair source.
func WithKeyGenerator(gen func() (*keypair.KeyPair, error)) Option {
	return func(r *Registry) {
		r.newKey = gen
	}
}

// WithClock replaces the time source used for proof creation times.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithDisclosedParentKeyReference makes proofs reference the parent's key (<parent>#keys-1) instead of the
// child's parent-ownership fragment. Such proofs reveal the parent DID.
func WithDisclosedParentKeyReference() Option {
	return func(r *Registry) {
		r.discloseParent = true
	}
}

// Registry is the did:idobjects registry. A single writer lock covers the parent check, the proof
// and the children update of a child registration.
type Registry struct {
	namespace      string
	storeProvider  storage.Provider
	store          storage.Store
	newKey         func() (*keypair.KeyPair, error)
	now            func() time.Time
	discloseParent bool
	mu             sync.RWMutex
}

// New returns a registry for one namespace.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		namespace: DefaultNamespace,
		newKey:    keypair.Generate,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	if !namespaceRegex.MatchString(r.namespace) {
		return nil, fmt.Errorf("invalid namespace %q", r.namespace)
	}

	if r.storeProvider == nil {
		r.storeProvider = mem.NewProvider()
	}

	store, err := r.storeProvider.OpenStore(StoreName)
	if err != nil {
		return nil, fmt.Errorf("open did registry store: %w", err)
	}

	err = r.storeProvider.SetStoreConfig(StoreName, storage.StoreConfiguration{TagNames: []string{namespaceTagName}})
	if err != nil {
		return nil, fmt.Errorf("set did registry store config: %w", err)
	}

	r.store = store

	return r, nil
}

// Namespace returns the namespace the registry issues DIDs in.
func (r *Registry) Namespace() string {
	return r.namespace
}

// Accept accepts did:idobjects method.
func (r *Registry) Accept(method string) bool {
	return method == DIDMethod
}

// Create issues a new DID, as a child of parent when parent is not nil.
func (r *Registry) Create(parent *Parent) (*CreateResult, error) {
	var signer *keypair.KeyPair

	if parent != nil {
		var err error

		signer, err = keypair.FromSeed(parent.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("parent private key: %w", err)
		}

		defer signer.Wipe()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var parentRec *record

	if parent != nil {
		rec, err := r.get(parent.DID)
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParent, parent.DID)
		} else if err != nil {
			return nil, err
		}

		if err := checkSigner(rec.Document, signer); err != nil {
			return nil, err
		}

		parentRec = rec
	}

	kp, id, err := r.freshKey()
	if err != nil {
		return nil, err
	}

	defer kp.Wipe()

	doc := r.createDoc(id, kp.PublicKey())

	if parent != nil {
		vm := id + "#" + did.ParentOwnershipFragment
		if r.discloseParent {
			vm = parent.DID + "#" + keyFragment
		}

		proof := did.NewOwnershipProof(id, vm, r.now())

		if err := proof.Sign(signer); err != nil {
			return nil, fmt.Errorf("sign ownership proof: %w", err)
		}

		doc.Proof = proof
	}

	ops, err := r.createOperations(id, doc, parent, parentRec)
	if err != nil {
		return nil, err
	}

	if err := r.store.Batch(ops); err != nil {
		return nil, fmt.Errorf("store DID record: %w", err)
	}

	logger.Debugf("registered %s", id)

	return &CreateResult{
		DID:        id,
		Document:   doc,
		PrivateKey: kp.PrivateKey(),
		PublicKey:  kp.PublicKey(),
	}, nil
}

func (r *Registry) createOperations(id string, doc *did.Doc, parent *Parent, parentRec *record) ([]storage.Operation, error) {
	childBytes, err := json.Marshal(&record{Document: doc, Children: []string{}})
	if err != nil {
		return nil, err
	}

	ops := []storage.Operation{{
		Key:   id,
		Value: childBytes,
		Tags:  []storage.Tag{{Name: namespaceTagName, Value: r.namespace}},
	}}

	if parent != nil {
		parentRec.Children = append(parentRec.Children, id)

		parentBytes, err := json.Marshal(parentRec)
		if err != nil {
			return nil, err
		}

		ops = append(ops, storage.Operation{
			Key:   parent.DID,
			Value: parentBytes,
			Tags:  []storage.Tag{{Name: namespaceTagName, Value: namespaceOf(parent.DID)}},
		})
	}

	return ops, nil
}

// freshKey generates keys until one maps to an unregistered DID. Must be called with the write lock held.
func (r *Registry) freshKey() (*keypair.KeyPair, string, error) {
	for attempt := 0; attempt <= maxCollisionRetries; attempt++ {
		kp, err := r.newKey()
		if err != nil {
			return nil, "", err
		}

		id := r.didOf(kp.PublicKey())

		_, err = r.store.Get(id)
		if errors.Is(err, storage.ErrDataNotFound) {
			return kp, id, nil
		}

		kp.Wipe()

		if err != nil {
			return nil, "", fmt.Errorf("check DID uniqueness: %w", err)
		}

		logger.Warnf("generated DID %s is already registered, regenerating", id)
	}

	return nil, "", fmt.Errorf("%w after %d attempts", ErrDIDCollision, maxCollisionRetries+1)
}

func (r *Registry) didOf(pub []byte) string {
	return fmt.Sprintf("did:%s:%s:%s", DIDMethod, r.namespace, UID(pub))
}

func (r *Registry) createDoc(id string, pub []byte) *did.Doc {
	keyID := id + "#" + keyFragment

	return &did.Doc{
		Context: []interface{}{
			did.ContextV1,
			map[string]interface{}{
				"idobjects":                    ExtensionContext,
				did.Ed25519VerificationKey2018: "idobjects:" + did.Ed25519VerificationKey2018,
				did.Ed25519Signature2018:       "idobjects:" + did.Ed25519Signature2018,
			},
		},
		ID:         id,
		Controller: id,
		VerificationMethod: []did.VerificationMethod{{
			ID:                 keyID,
			Type:               did.Ed25519VerificationKey2018,
			Controller:         id,
			PublicKeyMultibase: key.EncodePublicKey(pub),
		}},
		Authentication:       []string{keyID},
		AssertionMethod:      []string{keyID},
		CapabilityInvocation: []string{keyID},
		CapabilityDelegation: []string{keyID},
		Children:             []string{},
	}
}

// VerifyOwnership reports whether parentDID signed the ownership proof of childDID. It never fails: any
// missing or mismatching piece yields false.
func (r *Registry) VerifyOwnership(childDID, parentDID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	child, err := r.get(childDID)
	if err != nil {
		return false
	}

	proof := child.Document.Proof
	if proof == nil || proof.Type != did.Ed25519Signature2018 || proof.Child != childDID {
		return false
	}

	parent, err := r.get(parentDID)
	if err != nil {
		return false
	}

	pub, err := publicKeyOf(parent.Document)
	if err != nil {
		return false
	}

	return proof.Verify(pub)
}

// Read resolves a did:idobjects DID of this registry's namespace. An unregistered DID resolves to a document
// carrying the not-found marker.
func (r *Registry) Read(didID string) (*did.DocResolution, error) {
	if err := r.checkNamespace(didID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rec, err := r.get(didID)
	r.mu.RUnlock()

	if errors.Is(err, storage.ErrDataNotFound) {
		return did.NotFound(didID), nil
	} else if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", didID, err)
	}

	doc := rec.Document
	doc.Children = append([]string{}, rec.Children...)

	return &did.DocResolution{DIDDocument: doc}, nil
}

// Resolve is Read.
func (r *Registry) Resolve(didID string) (*did.DocResolution, error) {
	return r.Read(didID)
}

// List returns every DID registered in this namespace.
func (r *Registry) List() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string

	err := r.each(func(id string, _ *record) bool {
		ids = append(ids, id)

		return true
	})

	return ids, err
}

func (r *Registry) checkNamespace(didID string) error {
	parsed, err := did.Parse(didID)
	if err != nil {
		return err
	}

	prefix := r.namespace + ":"
	if parsed.Method != DIDMethod || !strings.HasPrefix(parsed.MethodSpecificID, prefix) ||
		len(parsed.MethodSpecificID) == len(prefix) {
		return fmt.Errorf("%w: %s is not a did:%s:%s DID", did.ErrMalformedDID, didID, DIDMethod, r.namespace)
	}

	return nil
}

// get must be called with the lock held.
func (r *Registry) get(didID string) (*record, error) {
	b, err := r.store.Get(didID)
	if err != nil {
		return nil, err
	}

	rec := &record{}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("corrupt registry record %s: %w", didID, err)
	}

	if rec.Document == nil {
		return nil, fmt.Errorf("corrupt registry record %s: no document", didID)
	}

	return rec, nil
}

// each visits the records of this namespace until fn returns false. Must be called with the lock held.
func (r *Registry) each(fn func(id string, rec *record) bool) error {
	iter, err := r.store.Query(namespaceTagName + ":" + r.namespace)
	if err != nil {
		return fmt.Errorf("query did registry: %w", err)
	}

	defer storage.Close(iter, logger)

	for {
		ok, err := iter.Next()
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		id, err := iter.Key()
		if err != nil {
			return err
		}

		b, err := iter.Value()
		if err != nil {
			return err
		}

		rec := &record{}
		if err := json.Unmarshal(b, rec); err != nil {
			return fmt.Errorf("corrupt registry record %s: %w", id, err)
		}

		if !fn(id, rec) {
			return nil
		}
	}
}

// UID derives the unique id part of a did:idobjects DID from a public key.
func UID(pub []byte) string {
	sum := sha256.Sum256(pub)

	return base58.Encode(sum[:uidSize])
}

func namespaceOf(didID string) string {
	parts := strings.Split(didID, ":")

	const namespaceIdx = 2

	if len(parts) <= namespaceIdx {
		return ""
	}

	return parts[namespaceIdx]
}

func publicKeyOf(doc *did.Doc) ([]byte, error) {
	vm, ok := doc.VerificationMethodOfType(did.Ed25519VerificationKey2018)
	if !ok {
		return nil, fmt.Errorf("no %s verification method in %s", did.Ed25519VerificationKey2018, doc.ID)
	}

	return key.DecodeEd25519PublicKey(vm.PublicKeyMultibase)
}

func checkSigner(parentDoc *did.Doc, signer *keypair.KeyPair) error {
	pub, err := publicKeyOf(parentDoc)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrParentKeyMismatch, err)
	}

	if string(pub) != string(signer.PublicKey()) {
		return ErrParentKeyMismatch
	}

	return nil
}
