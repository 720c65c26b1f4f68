/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package idobjects

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/idobjects/idobjects-framework-go/pkg/crypto/keypair"
	"github.com/idobjects/idobjects-framework-go/pkg/doc/did"
	"github.com/idobjects/idobjects-framework-go/pkg/vdr/key"
)

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()

	r, err := New(opts...)
	require.NoError(t, err)

	return r
}

func createChild(t *testing.T, r *Registry, parent *CreateResult) *CreateResult {
	t.Helper()

	child, err := r.Create(&Parent{DID: parent.DID, PrivateKey: parent.PrivateKey})
	require.NoError(t, err)

	return child
}

// tamper rewrites the stored record of id.
func tamper(t *testing.T, r *Registry, id string, fn func(rec *record)) {
	t.Helper()

	rec, err := r.get(id)
	require.NoError(t, err)

	fn(rec)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, r.store.Put(id, b))
}

func TestNew(t *testing.T) {
	t.Run("default namespace", func(t *testing.T) {
		require.Equal(t, DefaultNamespace, newRegistry(t).Namespace())
	})

	t.Run("invalid namespace", func(t *testing.T) {
		for _, ns := range []string{"", "a:b", "a b"} {
			_, err := New(WithNamespace(ns))
			require.Error(t, err, ns)
		}
	})

	t.Run("accept", func(t *testing.T) {
		r := newRegistry(t)
		require.True(t, r.Accept(DIDMethod))
		require.False(t, r.Accept(key.DIDMethod))
	})
}

func TestCreate(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newRegistry(t, WithNamespace("test"), WithClock(func() time.Time { return created }))

	root, err := r.Create(nil)
	require.NoError(t, err)

	t.Run("root document", func(t *testing.T) {
		require.True(t, strings.HasPrefix(root.DID, "did:idobjects:test:"))
		require.Equal(t, "did:idobjects:test:"+UID(root.PublicKey), root.DID)
		require.Len(t, root.PrivateKey, keypair.SeedSize)
		require.Len(t, root.PublicKey, keypair.PublicKeySize)

		doc := root.Document
		require.Equal(t, root.DID, doc.ID)
		require.Equal(t, root.DID, doc.Controller)
		require.NotNil(t, doc.Children)
		require.Empty(t, doc.Children)
		require.Nil(t, doc.Proof)
		require.Len(t, doc.VerificationMethod, 1)

		keyID := root.DID + "#keys-1"
		require.Equal(t, keyID, doc.VerificationMethod[0].ID)
		require.Equal(t, key.EncodePublicKey(root.PublicKey), doc.VerificationMethod[0].PublicKeyMultibase)
		require.Equal(t, []string{keyID}, doc.Authentication)
		require.Equal(t, []string{keyID}, doc.AssertionMethod)
		require.Equal(t, []string{keyID}, doc.CapabilityInvocation)
		require.Equal(t, []string{keyID}, doc.CapabilityDelegation)
	})

	t.Run("uid is 8 sha256 bytes", func(t *testing.T) {
		uid := UID(root.PublicKey)
		require.NotEmpty(t, uid)
		require.LessOrEqual(t, len(uid), 11)
	})

	t.Run("child proof", func(t *testing.T) {
		child := createChild(t, r, root)

		proof := child.Document.Proof
		require.NotNil(t, proof)
		require.Equal(t, did.Ed25519Signature2018, proof.Type)
		require.Equal(t, did.ParentOwnershipPurpose, proof.ProofPurpose)
		require.Equal(t, child.DID, proof.Child)
		require.Equal(t, child.DID+"#parent-ownership", proof.VerificationMethod)
		require.Equal(t, "2025-03-01T12:00:00Z", proof.Created)
		require.True(t, proof.Verify(root.PublicKey))
	})

	t.Run("unknown parent", func(t *testing.T) {
		other := newRegistry(t, WithNamespace("test"))

		_, err := other.Create(&Parent{DID: root.DID, PrivateKey: root.PrivateKey})
		require.ErrorIs(t, err, ErrUnknownParent)
	})

	t.Run("parent key mismatch", func(t *testing.T) {
		stranger, err := keypair.Generate()
		require.NoError(t, err)

		_, err = r.Create(&Parent{DID: root.DID, PrivateKey: stranger.PrivateKey()})
		require.ErrorIs(t, err, ErrParentKeyMismatch)
	})

	t.Run("malformed parent key", func(t *testing.T) {
		_, err := r.Create(&Parent{DID: root.DID, PrivateKey: []byte("short")})
		require.ErrorIs(t, err, keypair.ErrInvalidKey)
	})

	t.Run("caller key is not wiped", func(t *testing.T) {
		parentKey := append([]byte(nil), root.PrivateKey...)
		createChild(t, r, &CreateResult{DID: root.DID, PrivateKey: parentKey})
		require.Equal(t, root.PrivateKey, parentKey)
	})

	t.Run("entropy failure", func(t *testing.T) {
		failing := newRegistry(t, WithKeyGenerator(func() (*keypair.KeyPair, error) {
			return nil, keypair.ErrEntropy
		}))

		_, err := failing.Create(nil)
		require.ErrorIs(t, err, keypair.ErrEntropy)
	})
}

func TestVerifyOwnership(t *testing.T) {
	r := newRegistry(t)

	root, err := r.Create(nil)
	require.NoError(t, err)

	child := createChild(t, r, root)
	grandchild := createChild(t, r, child)

	t.Run("parent owns child", func(t *testing.T) {
		require.True(t, r.VerifyOwnership(child.DID, root.DID))
		require.True(t, r.VerifyOwnership(grandchild.DID, child.DID))
	})

	t.Run("ownership is not transitive or reversible", func(t *testing.T) {
		require.False(t, r.VerifyOwnership(grandchild.DID, root.DID))
		require.False(t, r.VerifyOwnership(root.DID, child.DID))
	})

	t.Run("other DID does not own child", func(t *testing.T) {
		other, err := r.Create(nil)
		require.NoError(t, err)

		require.False(t, r.VerifyOwnership(child.DID, other.DID))
	})

	t.Run("unregistered DIDs", func(t *testing.T) {
		require.False(t, r.VerifyOwnership("did:idobjects:main:nope", root.DID))
		require.False(t, r.VerifyOwnership(child.DID, "did:idobjects:main:nope"))
		require.False(t, r.VerifyOwnership("garbage", "garbage"))
	})

	t.Run("tampered proof child", func(t *testing.T) {
		c := createChild(t, r, root)
		require.True(t, r.VerifyOwnership(c.DID, root.DID))

		tamper(t, r, c.DID, func(rec *record) {
			rec.Document.Proof.Child = grandchild.DID
		})
		require.False(t, r.VerifyOwnership(c.DID, root.DID))
	})

	t.Run("tampered signature", func(t *testing.T) {
		c := createChild(t, r, root)

		tamper(t, r, c.DID, func(rec *record) {
			sig := []byte(rec.Document.Proof.Signature)
			if sig[5] == 'A' {
				sig[5] = 'B'
			} else {
				sig[5] = 'A'
			}

			rec.Document.Proof.Signature = string(sig)
		})
		require.False(t, r.VerifyOwnership(c.DID, root.DID))
	})

	t.Run("wrong proof type", func(t *testing.T) {
		c := createChild(t, r, root)

		tamper(t, r, c.DID, func(rec *record) {
			rec.Document.Proof.Type = "JsonWebSignature2020"
		})
		require.False(t, r.VerifyOwnership(c.DID, root.DID))
	})

	t.Run("parent without key", func(t *testing.T) {
		p, err := r.Create(nil)
		require.NoError(t, err)

		c := createChild(t, r, p)

		tamper(t, r, p.DID, func(rec *record) {
			rec.Document.VerificationMethod = nil
		})
		require.False(t, r.VerifyOwnership(c.DID, p.DID))
	})

	t.Run("root has no proof", func(t *testing.T) {
		require.False(t, r.VerifyOwnership(root.DID, root.DID))
	})
}

func TestResolve(t *testing.T) {
	r := newRegistry(t)

	root, err := r.Create(nil)
	require.NoError(t, err)

	c1 := createChild(t, r, root)
	c2 := createChild(t, r, root)

	t.Run("live children", func(t *testing.T) {
		res, err := r.Resolve(root.DID)
		require.NoError(t, err)
		require.True(t, res.Found())
		require.Equal(t, []string{c1.DID, c2.DID}, res.DIDDocument.Children)

		// the document returned by Create is not updated afterwards
		require.Empty(t, root.Document.Children)
	})

	t.Run("leaf has empty children", func(t *testing.T) {
		res, err := r.Read(c1.DID)
		require.NoError(t, err)
		require.NotNil(t, res.DIDDocument.Children)
		require.Empty(t, res.DIDDocument.Children)
		require.NotNil(t, res.DIDDocument.Proof)
	})

	t.Run("resolutions are independent copies", func(t *testing.T) {
		res, err := r.Resolve(root.DID)
		require.NoError(t, err)

		res.DIDDocument.Children[0] = "mutated"

		again, err := r.Resolve(root.DID)
		require.NoError(t, err)
		require.Equal(t, c1.DID, again.DIDDocument.Children[0])
	})

	t.Run("not found is data", func(t *testing.T) {
		res, err := r.Resolve("did:idobjects:main:unknown")
		require.NoError(t, err)
		require.False(t, res.Found())
		require.Equal(t, did.NotFoundMarker, res.DIDDocument.Error)
		require.Equal(t, "did:idobjects:main:unknown", res.DIDDocument.ID)
	})

	t.Run("malformed or foreign DIDs", func(t *testing.T) {
		for _, id := range []string{"", "did:idobjects", "did:key:z6Mk", "did:idobjects:other:abc", "did:idobjects:main:"} {
			_, err := r.Resolve(id)
			require.ErrorIs(t, err, did.ErrMalformedDID, id)
		}
	})

	t.Run("list", func(t *testing.T) {
		ids, err := r.List()
		require.NoError(t, err)
		require.ElementsMatch(t, []string{root.DID, c1.DID, c2.DID}, ids)
	})
}

func TestCollision(t *testing.T) {
	fixed, err := keypair.Generate()
	require.NoError(t, err)

	seed := fixed.PrivateKey()

	var mu sync.Mutex

	calls := 0
	sameKey := func() (*keypair.KeyPair, error) {
		mu.Lock()
		calls++
		mu.Unlock()

		return keypair.FromSeed(seed)
	}

	r := newRegistry(t, WithKeyGenerator(sameKey))

	first, err := r.Create(nil)
	require.NoError(t, err)

	t.Run("second creation never overwrites", func(t *testing.T) {
		_, err := r.Create(nil)
		require.ErrorIs(t, err, ErrDIDCollision)
		require.Equal(t, 1+maxCollisionRetries+1, calls)

		res, err := r.Resolve(first.DID)
		require.NoError(t, err)
		require.Equal(t, first.Document.VerificationMethod, res.DIDDocument.VerificationMethod)
	})

	t.Run("regenerates after a collision", func(t *testing.T) {
		n := 0
		flaky := func() (*keypair.KeyPair, error) {
			n++
			if n == 1 {
				return keypair.FromSeed(seed)
			}

			return keypair.Generate()
		}

		r.newKey = flaky

		second, err := r.Create(nil)
		require.NoError(t, err)
		require.NotEqual(t, first.DID, second.DID)
		require.Equal(t, 2, n)
	})

	t.Run("independent creations are distinct", func(t *testing.T) {
		fresh := newRegistry(t)

		a, err := fresh.Create(nil)
		require.NoError(t, err)

		b, err := fresh.Create(nil)
		require.NoError(t, err)

		require.NotEqual(t, a.DID, b.DID)

		ids, err := fresh.List()
		require.NoError(t, err)
		require.Len(t, ids, 2)
	})
}

func TestConcurrentChildren(t *testing.T) {
	r := newRegistry(t)

	root, err := r.Create(nil)
	require.NoError(t, err)

	const n = 25

	var wg sync.WaitGroup

	errs := make(chan error, n)
	dids := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			c, err := r.Create(&Parent{DID: root.DID, PrivateKey: root.PrivateKey})
			if err != nil {
				errs <- err

				return
			}

			dids <- c.DID
		}()
	}

	wg.Wait()
	close(errs)
	close(dids)

	for err := range errs {
		require.NoError(t, err)
	}

	var created []string
	for d := range dids {
		created = append(created, d)
	}

	res, err := r.Resolve(root.DID)
	require.NoError(t, err)
	require.Len(t, res.DIDDocument.Children, n)
	require.ElementsMatch(t, created, res.DIDDocument.Children)

	for _, c := range created {
		require.True(t, r.VerifyOwnership(c, root.DID))
	}
}

type failingProvider struct {
	*mem.Provider
	openErr error
}

func (p *failingProvider) OpenStore(name string) (storage.Store, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}

	return p.Provider.OpenStore(name)
}

func TestStorageErrors(t *testing.T) {
	_, err := New(WithStorageProvider(&failingProvider{Provider: mem.NewProvider(), openErr: errors.New("down")}))
	require.EqualError(t, err, "open did registry store: down")
}
