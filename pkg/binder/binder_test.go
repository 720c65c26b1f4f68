/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package binder

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/envelope"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/validity"
	"github.com/idobjects/idobjects-framework-go/pkg/dataobject/verifier"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
	dostore "github.com/idobjects/idobjects-framework-go/pkg/store/dataobject"
)

const ownerDID = "did:idobjects:main:4HV9fY3cWz1mVtq8"

type storageProvider struct {
	storage.Provider
}

func (p *storageProvider) StorageProvider() storage.Provider {
	return p.Provider
}

type mockProvider struct {
	store *dostore.Store
}

func (p *mockProvider) DataObjectStore() *dostore.Store {
	return p.store
}

func newBinder(t *testing.T, now time.Time) *Binder {
	t.Helper()

	store, err := dostore.New(&storageProvider{mem.NewProvider()})
	require.NoError(t, err)

	b, err := New(&mockProvider{store: store})
	require.NoError(t, err)

	b.now = func() time.Time { return now }

	return b
}

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := envelope.GenerateKey(envelope.DefaultRSAKeySize)
	require.NoError(t, err)

	return key
}

func TestNew(t *testing.T) {
	_, err := New(&mockProvider{})
	require.EqualError(t, err, "data object store is required")
}

func TestBinder_Bind(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	key := newKey(t)
	doc := &did.Doc{ID: ownerDID}

	t.Run("default content and expiration", func(t *testing.T) {
		b := newBinder(t, now)
		data := []byte("%PDF-1.4 sample container")

		res, err := b.Bind(bytes.NewReader(data), "report.pdf", doc, &key.PublicKey)
		require.NoError(t, err)
		require.NotEmpty(t, res.RecordID)
		require.Len(t, res.ContainerHash, 64)
		require.Equal(t, DefaultDataType, res.DataObject.DataType())

		content := res.DataObject.Content()
		require.Equal(t, res.ContainerHash, content[ContainerHashKey])
		require.Equal(t, "report.pdf", content[OriginalFilenameKey])

		metadata, ok := content[MetadataKey].(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, json.Number("25"), metadata["file_size"])
		require.Equal(t, "application/pdf", metadata["mime_type"])
		require.Equal(t, now.Format(time.RFC3339Nano), metadata["created_at"])

		conditions := res.DataObject.ValidityConditions()
		require.Len(t, conditions, 1)
		require.Equal(t, validity.TypeExpiration, conditions[0].Type)
		require.Equal(t, DefaultExpirationDescription, conditions[0].Description)
		require.Equal(t, now.AddDate(1, 0, 0).Format(time.RFC3339Nano), conditions[0].Parameters["date"])
	})

	t.Run("options", func(t *testing.T) {
		b := newBinder(t, now)

		res, err := b.Bind(strings.NewReader("payload"), "blob.bin", doc, &key.PublicKey,
			WithDataType("pdf_document"),
			WithMIMEType("application/octet-stream"),
			WithValidityConditions(validity.MinVersion("1", "")),
		)
		require.NoError(t, err)
		require.Equal(t, "pdf_document", res.DataObject.DataType())

		metadata := res.DataObject.Content()[MetadataKey].(map[string]interface{})
		require.Equal(t, "application/octet-stream", metadata["mime_type"])
		require.Equal(t, validity.TypeVersion, res.DataObject.ValidityConditions()[0].Type)
	})

	t.Run("missing DID document id", func(t *testing.T) {
		_, err := newBinder(t, now).Bind(strings.NewReader("x"), "x", &did.Doc{}, &key.PublicKey)
		require.EqualError(t, err, "DID document is missing 'id' field")
	})

	t.Run("read error", func(t *testing.T) {
		_, err := newBinder(t, now).Bind(iotestErrReader{}, "x", doc, &key.PublicKey)
		require.Error(t, err)
		require.Contains(t, err.Error(), "read container")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := newBinder(t, now).BindFile(filepath.Join(t.TempDir(), "missing"), doc, &key.PublicKey)
		require.Error(t, err)
		require.Contains(t, err.Error(), "open container")
	})
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestBinder_Verify(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	key := newKey(t)
	doc := &did.Doc{ID: ownerDID}

	path := filepath.Join(t.TempDir(), "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("signed contract"), 0o600))

	b := newBinder(t, now)

	res, err := b.BindFile(path, doc, &key.PublicKey)
	require.NoError(t, err)

	hash, err := HashFile(path)
	require.NoError(t, err)
	require.Equal(t, res.ContainerHash, hash)

	t.Run("valid", func(t *testing.T) {
		result := b.VerifyFile(res.RecordID, path, key, now.Add(time.Hour))
		require.True(t, result.Valid, result.Error)
		require.Empty(t, result.Error)
		require.Equal(t, "contract.txt", result.DecryptedContent[OriginalFilenameKey])
		require.Equal(t, res.DataObject.ContentHash(), result.DataObject.ContentHash())

		raw, err := json.Marshal(result)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"valid":true`)
		require.Contains(t, string(raw), `"owner_did_hash"`)
	})

	t.Run("modified container", func(t *testing.T) {
		result := b.Verify(res.RecordID, strings.NewReader("signed contract!"), key, now)
		require.False(t, result.Valid)
		require.ErrorIs(t, result.Err, verifier.ErrIntegrity)
		require.Equal(t, verifier.ErrIntegrity.Error(), result.Error)
	})

	t.Run("expired", func(t *testing.T) {
		result := b.VerifyFile(res.RecordID, path, key, now.AddDate(1, 0, 1))
		require.False(t, result.Valid)
		require.ErrorIs(t, result.Err, verifier.ErrValidity)
		require.Contains(t, result.Error, DefaultExpirationDescription)
	})

	t.Run("wrong key", func(t *testing.T) {
		result := b.VerifyFile(res.RecordID, path, newKey(t), now)
		require.False(t, result.Valid)
		require.ErrorIs(t, result.Err, envelope.ErrKeyUnwrap)
	})

	t.Run("unknown record", func(t *testing.T) {
		result := b.VerifyFile("missing", path, key, now)
		require.False(t, result.Valid)
		require.ErrorIs(t, result.Err, dostore.ErrNotFound)
	})

	t.Run("missing file", func(t *testing.T) {
		result := b.VerifyFile(res.RecordID, path+".gone", key, now)
		require.False(t, result.Valid)
		require.Contains(t, result.Error, "open container")
	})
}

func TestBinder_VerifyHash(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	key := newKey(t)

	b := newBinder(t, now)

	res, err := b.Bind(strings.NewReader("blob"), "blob", &did.Doc{ID: ownerDID}, &key.PublicKey)
	require.NoError(t, err)

	result := b.VerifyHash(res.RecordID, res.ContainerHash, key, now)
	require.True(t, result.Valid, result.Error)

	result = b.VerifyHash(res.RecordID, "", key, now)
	require.False(t, result.Valid)
	require.ErrorIs(t, result.Err, verifier.ErrIntegrity)
}

func TestBinder_VerifyOwner(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	key := newKey(t)

	b := newBinder(t, now)

	obj, err := dataobject.Create("did:idobjects:main:someoneElse", "document", map[string]interface{}{"a": 1},
		&key.PublicKey, nil)
	require.NoError(t, err)

	id, err := b.store.Save(obj, "hash", &did.Doc{ID: ownerDID})
	require.NoError(t, err)

	result := b.VerifyHash(id, "hash", key, now)
	require.False(t, result.Valid)
	require.ErrorIs(t, result.Err, verifier.ErrOwnershipMismatch)
}
