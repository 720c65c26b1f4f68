/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package idobjects enables Go developers to issue hierarchical did:idobjects identifiers and to seal data objects
// that are bound to them.
//
// Packages for end developer usage
//
// pkg/framework/idobjects: The main package of the framework. It creates the context holding the DID registry and
// the data object store used by the packages listed below.
//
// pkg/controller/command/didregistry: Creates and resolves DIDs and checks ownership proofs between a parent DID and
// its children.
//
// pkg/controller/command/dataobject: Seals, verifies and lists data objects.
//
// pkg/controller/rest: The same operations exposed over HTTP, served by cmd/idobjects-rest.
//
// Basic workflow
//
//      1) Instantiate the framework using provider options.
//      2) Create a context using the framework instance.
//      3) Create a DID, then child DIDs owned by it.
//      4) Seal data objects for an owner DID and verify them with the owner's private key.
//      5) Call Close() on the framework to release resources.
package idobjects
