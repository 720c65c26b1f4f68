/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/idobjects/idobjects-framework-go/pkg/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
)

const (
	nameSpace    = "dataobject"
	recordTag    = "dataobject"
	ownerTagName = "owner"
	cacheSize    = 100
)

var logger = log.New("idobjects/store/dataobject")

// ErrNotFound signals that no record exists under the given id.
var ErrNotFound = errors.New("data object record not found")

// Record is a persisted data object together with the hash of the container it is bound to and the owner's
// DID document at sealing time.
type Record struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	DataObject    json.RawMessage `json:"data_object"`
	ContainerHash string          `json:"container_hash"`
	DIDDocument   *did.Doc        `json:"did_document,omitempty"`
}

// Object parses the stored data object.
func (r *Record) Object() (*dataobject.DataObject, error) {
	return dataobject.Parse(r.DataObject)
}

// Store persists data object records. Records are written once and never updated.
type Store struct {
	store storage.Store
	cache gcache.Cache
	now   func() time.Time
}

type provider interface {
	StorageProvider() storage.Provider
}

// New returns a new data object store.
func New(ctx provider) (*Store, error) {
	store, err := ctx.StorageProvider().OpenStore(nameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open data object store: %w", err)
	}

	err = ctx.StorageProvider().SetStoreConfig(nameSpace,
		storage.StoreConfiguration{TagNames: []string{recordTag, ownerTagName}})
	if err != nil {
		return nil, fmt.Errorf("failed to set data object store config: %w", err)
	}

	return &Store{
		store: store,
		cache: gcache.New(cacheSize).ARC().Build(),
		now:   time.Now,
	}, nil
}

// Save stores obj under a new id.
func (s *Store) Save(obj *dataobject.DataObject, containerHash string, didDoc *did.Doc) (string, error) {
	if obj == nil {
		return "", errors.New("data object is required")
	}

	objBytes, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data object: %w", err)
	}

	rec := &Record{
		ID:            uuid.New().String(),
		CreatedAt:     s.now().UTC(),
		DataObject:    objBytes,
		ContainerHash: containerHash,
		DIDDocument:   didDoc,
	}

	recBytes, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data object record: %w", err)
	}

	err = s.store.Put(rec.ID, recBytes,
		storage.Tag{Name: recordTag},
		storage.Tag{Name: ownerTagName, Value: obj.OwnerDIDHash()},
	)
	if err != nil {
		return "", fmt.Errorf("failed to put data object record: %w", err)
	}

	if err := s.cache.Set(rec.ID, recBytes); err != nil {
		logger.Warnf("failed to cache data object record %s: %s", rec.ID, err)
	}

	return rec.ID, nil
}

// Get returns the record stored under id.
func (s *Store) Get(id string) (*Record, error) {
	if cached, err := s.cache.Get(id); err == nil {
		if b, ok := cached.([]byte); ok {
			return parseRecord(b)
		}
	}

	b, err := s.store.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get data object record: %w", err)
	}

	if err := s.cache.Set(id, b); err != nil {
		logger.Warnf("failed to cache data object record %s: %s", id, err)
	}

	return parseRecord(b)
}

// GetDataObject returns the data object stored under id.
func (s *Store) GetDataObject(id string) (*dataobject.DataObject, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	return rec.Object()
}

// GetContainerHash returns the container hash recorded with id.
func (s *Store) GetContainerHash(id string) (string, error) {
	rec, err := s.Get(id)
	if err != nil {
		return "", err
	}

	return rec.ContainerHash, nil
}

// GetDIDDocument returns the owner DID document recorded with id.
func (s *Store) GetDIDDocument(id string) (*did.Doc, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if rec.DIDDocument == nil {
		return nil, fmt.Errorf("%w: no DID document recorded with %s", ErrNotFound, id)
	}

	return rec.DIDDocument, nil
}

// List returns up to limit records, newest first. A limit <= 0 returns every record.
func (s *Store) List(limit int) ([]*Record, error) {
	return s.query(recordTag, limit)
}

// ListByOwner returns up to limit records of the owner with the given DID, newest first.
func (s *Store) ListByOwner(ownerDID string, limit int) ([]*Record, error) {
	return s.query(ownerTagName+":"+dataobject.HashDID(ownerDID), limit)
}

func (s *Store) query(expression string, limit int) ([]*Record, error) {
	iter, err := s.store.Query(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to query data object records: %w", err)
	}

	defer storage.Close(iter, logger)

	var records []*Record

	for {
		ok, err := iter.Next()
		if err != nil {
			return nil, err
		}

		if !ok {
			break
		}

		b, err := iter.Value()
		if err != nil {
			return nil, err
		}

		rec, err := parseRecord(b)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}

		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func parseRecord(b []byte) (*Record, error) {
	rec := &Record{}

	if err := json.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data object record: %w", err)
	}

	return rec, nil
}
