/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didkey implements the `did:key` method
// (https://w3c-ccg.github.io/did-method-key/) as one concrete,
// runnable resolver.Resolver. It is not part of the distilled
// spec.md, which treats DID resolution purely as an external
// collaborator — this package exists so the rest of the module has at
// least one resolver it can exercise end to end instead of only a
// mock.
//
// A did:key identifier carries its only public key inline:
// "did:key:" + multibase(base58-btc, multicodec-prefix || raw-key).
// Resolving one never touches the network.
package didkey

import (
	"strings"

	"github.com/multiformats/go-multibase"

	"github.com/trustbloc/didcomm-go/pkg/errs"
	"github.com/trustbloc/didcomm-go/pkg/resolver"
)

// Multicodec prefixes for the two key types did:key identifiers in
// this module's test vectors use. See
// https://github.com/multiformats/multicodec/blob/master/table.csv.
var (
	prefixEd25519Pub = []byte{0xed, 0x01}
	prefixX25519Pub  = []byte{0xec, 0x01}
)

const keyIDSuffix = "#key-1"

// document implements resolver.Document for a single did:key.
type document struct {
	did       string
	curve     string
	publicKey []byte
}

func (d *document) FindPublicKeyIDForCurve(curve string) (string, bool) {
	if curve != d.curve {
		return "", false
	}

	return d.did + keyIDSuffix, true
}

func (d *document) PublicKeyBytes(kid string) ([]byte, bool) {
	if kid != d.did+keyIDSuffix && kid != d.did {
		return nil, false
	}

	return d.publicKey, true
}

// Resolver resolves did:key identifiers. Its zero value is ready to use.
type Resolver struct{}

// New returns a ready-to-use did:key Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve implements resolver.Resolver.
func (r *Resolver) Resolve(did string) (resolver.Document, bool) {
	doc, err := decode(did)
	if err != nil {
		return nil, false
	}

	return doc, true
}

func decode(did string) (*document, error) {
	const didKeyPrefix = "did:key:"

	if !strings.HasPrefix(did, didKeyPrefix) {
		return nil, errs.Newf(errs.KindGeneric, "not a did:key identifier: %s", did)
	}

	_, data, err := multibase.Decode(strings.TrimPrefix(did, didKeyPrefix))
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "decode did:key multibase value")
	}

	switch {
	case hasPrefix(data, prefixEd25519Pub):
		return &document{did: did, curve: resolver.CurveEd25519, publicKey: data[len(prefixEd25519Pub):]}, nil
	case hasPrefix(data, prefixX25519Pub):
		return &document{did: did, curve: resolver.CurveX25519, publicKey: data[len(prefixX25519Pub):]}, nil
	default:
		return nil, errs.New(errs.KindGeneric, "unsupported did:key multicodec prefix")
	}
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}

	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}

	return true
}

// Encode builds a did:key identifier for an Ed25519 or X25519 public
// key, selected by curve; any other curve is an error. It is
// provided for tests and examples that need to mint a DID from a
// freshly generated keypair.
func Encode(curve string, publicKey []byte) (string, error) {
	var prefix []byte

	switch curve {
	case resolver.CurveEd25519:
		prefix = prefixEd25519Pub
	case resolver.CurveX25519:
		prefix = prefixX25519Pub
	default:
		return "", errs.Newf(errs.KindGeneric, "unsupported curve for did:key: %s", curve)
	}

	data := make([]byte, 0, len(prefix)+len(publicKey))
	data = append(data, prefix...)
	data = append(data, publicKey...)

	encoded, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		return "", errs.Wrap(errs.KindGeneric, err, "encode did:key")
	}

	return "did:key:" + encoded, nil
}
