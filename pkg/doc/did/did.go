/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedDID is returned when a string is not a DID, or not a DID of the expected method.
var ErrMalformedDID = errors.New("malformed DID")

const idchar = `a-zA-Z0-9-_\.`

var didRegex = regexp.MustCompile(fmt.Sprintf(`^did:[a-z0-9]+:(:+|[:%s]+)*[%s]+$`, idchar, idchar))

// DID is parsed according to the generic syntax: https://w3c.github.io/did-core/#generic-did-syntax
type DID struct {
	Scheme           string // Scheme is always "did"
	Method           string // Method is the specific DID methods
	MethodSpecificID string // MethodSpecificID is the unique ID computed or assigned by the DID method
}

// String returns a string representation of this DID.
func (d *DID) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Scheme, d.Method, d.MethodSpecificID)
}

// Parse parses the string according to the generic DID syntax.
func Parse(did string) (*DID, error) {
	if !didRegex.MatchString(did) {
		return nil, fmt.Errorf(
			"%w: %s. Make sure it conforms to the generic DID syntax: https://w3c.github.io/did-core/#generic-did-syntax",
			ErrMalformedDID, did)
	}

	parts := strings.SplitN(did, ":", 3)

	return &DID{
		Scheme:           "did",
		Method:           parts[1],
		MethodSpecificID: parts[2],
	}, nil
}

// GetDIDMethod returns the method of a DID without validating the rest of it.
func GetDIDMethod(didID string) (string, error) {
	const minParts = 3

	parts := strings.SplitN(didID, ":", minParts)
	if len(parts) < minParts || parts[0] != "did" {
		return "", fmt.Errorf("%w: wrong format did input: %s", ErrMalformedDID, didID)
	}

	return parts[1], nil
}
