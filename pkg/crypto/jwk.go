/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"encoding/base64"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// JWK is the minimal JSON Web Key representation spec.md's `epk`
// header field needs: just enough to carry an ephemeral Curve25519 or
// P-256 public key. A full JWK implementation (square/go-jose and
// friends) pulls in RSA, JWKS-set and thumbprint machinery this
// module never uses, so the field is hand-rolled rather than pulling
// in a general-purpose JOSE library for four fields.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y,omitempty"`
}

// NewOKPJWK builds the `epk` value for an X25519 (OKP) ephemeral public key.
func NewOKPJWK(pub []byte) JWK {
	return JWK{Kty: "OKP", Crv: "X25519", X: base64.RawURLEncoding.EncodeToString(pub)}
}

// NewECJWK builds the `epk` value for a P-256 ephemeral public key
// from its uncompressed SEC1 coordinates.
func NewECJWK(x, y []byte) JWK {
	return JWK{
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
	}
}

// OKPPublicKey returns the raw public key bytes of an OKP JWK.
func (k JWK) OKPPublicKey() ([]byte, error) {
	x, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerializationError, err, "decode JWK x")
	}

	return x, nil
}

// ECPublicKey returns the raw (x, y) coordinates of an EC JWK.
func (k JWK) ECPublicKey() (x, y []byte, err error) {
	x, err = base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindSerializationError, err, "decode JWK x")
	}

	y, err = base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindSerializationError, err, "decode JWK y")
	}

	return x, y, nil
}
