/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resolver declares the DID-resolution collaborator this
// module consumes but does not implement. spec.md §1 lists DID
// document resolution as an external collaborator: "resolve(did) →
// {encryption_key_id, key_bytes_by_curve}". Resolver and Document
// below are that contract's Go shape.
package resolver

// Curve names recognized by callers of Document.FindPublicKeyIDForCurve.
const (
	CurveX25519    = "X25519"
	CurveP256      = "P-256"
	CurveEd25519   = "Ed25519"
	CurveSecp256k1 = "secp256k1"
)

// Document is a resolved DID document, reduced to the two operations
// the crypto layer needs: finding the id of a key for a given curve,
// and fetching the raw public-key bytes for a given id.
type Document interface {
	// FindPublicKeyIDForCurve returns the id of the first verification
	// or key-agreement method using curve, if any.
	FindPublicKeyIDForCurve(curve string) (kid string, ok bool)
	// PublicKeyBytes returns the raw public-key bytes for kid.
	PublicKeyBytes(kid string) (key []byte, ok bool)
}

// Resolver resolves a DID to its document. It returns ok=false,
// without an error, when the DID is simply unknown to this resolver —
// the spec's `Option<...>` return shape. A malformed DID or a
// transport failure against the resolver's backing store is the
// resolver implementation's concern, not this interface's.
type Resolver interface {
	Resolve(did string) (doc Document, ok bool)
}
