/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package crypto implements the stateless cryptographic primitives
// DIDComm envelopes are built from: the three content AEAD algorithms
// and the three signature algorithms named in spec.md §4.A. Each
// algorithm value is a tagged enum producing a pair of closures, the
// same shape as the original Rust crate's Cypher/Signer traits
// (_examples/original_source/src/crypto/{encryptor,signer}.rs).
package crypto

import (
	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// ContentAlgorithm selects the symmetric content-encryption algorithm
// a JWE is sealed with.
type ContentAlgorithm int

const (
	// XC20P is XChaCha20-Poly1305, key-wrapped with ECDH-1PU+XC20PKW.
	XC20P ContentAlgorithm = iota
	// A256GCM is AES-256-GCM, key-wrapped with ECDH-1PU+A256KW.
	A256GCM
	// A256CBC is AES-256-CBC with PKCS#7 padding, key-wrapped with ECDH-1PU+A256KW.
	A256CBC
)

// Wire alg/enc names as they appear in a JWE protected header.
const (
	algECDH1PUA256KW  = "ECDH-1PU+A256KW"
	algECDH1PUXC20PKW = "ECDH-1PU+XC20PKW"
	encA256GCM        = "A256GCM"
	encA256CBC        = "A256CBC-HS256"
	encXC20P          = "XC20P"
)

// KeyWrapAlg returns the `alg` header value this content algorithm is
// paired with.
func (c ContentAlgorithm) KeyWrapAlg() string {
	if c == XC20P {
		return algECDH1PUXC20PKW
	}

	return algECDH1PUA256KW
}

// EncName returns the `enc` header value for this content algorithm.
func (c ContentAlgorithm) EncName() string {
	switch c {
	case XC20P:
		return encXC20P
	case A256CBC:
		return encA256CBC
	default:
		return encA256GCM
	}
}

// ContentAlgorithmFromKeyWrapAlg maps a wire `alg` value back to the
// ContentAlgorithm it selects, per spec.md §4.A's table. Unknown names
// fail with KindJweParseError.
func ContentAlgorithmFromKeyWrapAlg(alg string) (ContentAlgorithm, error) {
	switch alg {
	case algECDH1PUA256KW:
		return A256GCM, nil
	case algECDH1PUXC20PKW:
		return XC20P, nil
	default:
		return 0, errs.Newf(errs.KindJweParseError, "unrecognized key-management alg: %s", alg)
	}
}

// ContentAlgorithmFromEncName maps a wire `enc` value back to the
// ContentAlgorithm it selects. Unlike ContentAlgorithmFromKeyWrapAlg,
// this distinguishes A256GCM from A256CBC, which share a key-wrap alg.
// Unknown names fail with KindJweParseError.
func ContentAlgorithmFromEncName(enc string) (ContentAlgorithm, error) {
	switch enc {
	case encXC20P:
		return XC20P, nil
	case encA256GCM:
		return A256GCM, nil
	case encA256CBC:
		return A256CBC, nil
	default:
		return 0, errs.Newf(errs.KindJweParseError, "unrecognized content enc: %s", enc)
	}
}

// Curve returns the ECDH curve name (matching pkg/resolver's curve
// constants) that ECDH-1PU ephemeral/static key agreement uses for
// this content algorithm, per spec.md §4.D.
func (c ContentAlgorithm) Curve() string {
	if c == XC20P {
		return "X25519"
	}

	return "P-256"
}

// NonceSize returns the required nonce length for this content
// algorithm, per spec.md §3 invariants.
func (c ContentAlgorithm) NonceSize() int {
	switch c {
	case XC20P:
		return 24
	case A256CBC:
		return 16
	default:
		return 12
	}
}

// Encryptor is a stateless symmetric encryption closure:
// ciphertext‖tag = Encryptor(nonce, key, plaintext, aad).
type Encryptor func(nonce, key, plaintext, aad []byte) ([]byte, error)

// Decryptor is the inverse of Encryptor.
type Decryptor func(nonce, key, ciphertext, aad []byte) ([]byte, error)

// Encryptor returns the encryption closure for this content algorithm.
func (c ContentAlgorithm) Encryptor() Encryptor {
	switch c {
	case XC20P:
		return encryptXC20P
	case A256CBC:
		return encryptA256CBC
	default:
		return encryptA256GCM
	}
}

// Decryptor returns the decryption closure for this content algorithm.
func (c ContentAlgorithm) Decryptor() Decryptor {
	switch c {
	case XC20P:
		return decryptXC20P
	case A256CBC:
		return decryptA256CBC
	default:
		return decryptA256GCM
	}
}

// SignatureAlgorithm selects the signing algorithm a JWS is produced with.
type SignatureAlgorithm int

const (
	// EdDSA is Ed25519.
	EdDSA SignatureAlgorithm = iota
	// ES256 is ECDSA over NIST P-256.
	ES256
	// ES256K is ECDSA over secp256k1.
	ES256K
)

// Wire alg names as they appear in a JWS protected header.
const (
	sigEdDSA  = "EdDSA"
	sigES256  = "ES256"
	sigES256K = "ES256K"
)

// WireName returns the `alg` header value for this signature algorithm.
func (s SignatureAlgorithm) WireName() string {
	switch s {
	case ES256:
		return sigES256
	case ES256K:
		return sigES256K
	default:
		return sigEdDSA
	}
}

// SignatureAlgorithmFromName maps a wire `alg` value back to the
// SignatureAlgorithm it selects. Unknown names fail with KindJwsParseError.
func SignatureAlgorithmFromName(alg string) (SignatureAlgorithm, error) {
	switch alg {
	case sigEdDSA:
		return EdDSA, nil
	case sigES256:
		return ES256, nil
	case sigES256K:
		return ES256K, nil
	default:
		return 0, errs.Newf(errs.KindJwsParseError, "unrecognized signature alg: %s", alg)
	}
}

// Signer produces a fixed-width signature over msg using key.
type Signer func(key, msg []byte) ([]byte, error)

// Verifier reports whether sig is a valid signature of msg under key.
type Verifier func(key, msg, sig []byte) (bool, error)

// Signer returns the signing closure for this algorithm.
func (s SignatureAlgorithm) Signer() Signer {
	switch s {
	case ES256:
		return signES256
	case ES256K:
		return signES256K
	default:
		return signEdDSA
	}
}

// Verifier returns the verification closure for this algorithm.
func (s SignatureAlgorithm) Verifier() Verifier {
	switch s {
	case ES256:
		return verifyES256
	case ES256K:
		return verifyES256K
	default:
		return verifyEdDSA
	}
}
