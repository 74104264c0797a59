/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/teserakt-io/golang-ed25519/ed25519"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

const (
	ed25519SeedSize   = 32
	ed25519PubKeySize = 32
	p256ScalarSize    = 32
	fieldElementSize  = 32
	rawSignatureSize  = 64
)

// signEdDSA signs msg with a 32-byte Ed25519 seed, per spec.md §4.C.
func signEdDSA(key, msg []byte) ([]byte, error) {
	if err := checkKeySize(key, ed25519SeedSize, "Ed25519 seed"); err != nil {
		return nil, err
	}

	priv := ed25519.NewKeyFromSeed(key)

	return ed25519.Sign(priv, msg), nil
}

func verifyEdDSA(key, msg, sig []byte) (bool, error) {
	if err := checkKeySize(key, ed25519PubKeySize, "Ed25519 public key"); err != nil {
		return false, err
	}

	if len(sig) != rawSignatureSize {
		return false, nil
	}

	return ed25519.Verify(ed25519.PublicKey(key), msg, sig), nil
}

// signES256 signs sha256(msg) with a 32-byte raw P-256 scalar,
// returning the fixed-width r‖s encoding (no ASN.1), per spec.md §4.C.
func signES256(key, msg []byte) ([]byte, error) {
	if err := checkKeySize(key, p256ScalarSize, "P-256 private key"); err != nil {
		return nil, err
	}

	priv := new(ecdsa.PrivateKey)
	priv.Curve = elliptic.P256()
	priv.D = new(big.Int).SetBytes(key)
	priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(key)

	digest := sha256.Sum256(msg)

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "ES256 sign")
	}

	return rsToFixedWidth(r, s), nil
}

func verifyES256(key, msg, sig []byte) (bool, error) {
	pub, err := parseSEC1P256PublicKey(key)
	if err != nil {
		return false, err
	}

	r, s, err := fixedWidthToRS(sig)
	if err != nil {
		return false, nil //nolint:nilerr // malformed signature verifies false, not an error
	}

	digest := sha256.Sum256(msg)

	return ecdsa.Verify(pub, digest[:], r, s), nil
}

func parseSEC1P256PublicKey(key []byte) (*ecdsa.PublicKey, error) {
	curve := elliptic.P256()

	var x, y *big.Int

	switch len(key) {
	case 33:
		x, y = elliptic.UnmarshalCompressed(curve, key)
	case 65:
		x, y = elliptic.Unmarshal(curve, key) //nolint:staticcheck // SEC1 uncompressed input, no compressed-only alternative for verify-only use
	default:
		return nil, errs.Newf(errs.KindInvalidKeySize, "unsupported P-256 public key length: %d", len(key))
	}

	if x == nil {
		return nil, errs.New(errs.KindJwsParseError, "invalid SEC1 P-256 public key")
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// signES256K signs sha256(msg) with a 32-byte raw secp256k1 scalar,
// returning the fixed-width r‖s encoding, per spec.md §4.C.
func signES256K(key, msg []byte) ([]byte, error) {
	if err := checkKeySize(key, p256ScalarSize, "secp256k1 private key"); err != nil {
		return nil, err
	}

	priv, _ := btcec.PrivKeyFromBytes(key)
	digest := sha256.Sum256(msg)

	sig := btcecdsa.Sign(priv, digest[:])
	serialized := sig.Serialize() // DER; re-derive raw r/s below

	r, s, err := derToRS(serialized)
	if err != nil {
		return nil, err
	}

	return rsToFixedWidth(r, s), nil
}

func verifyES256K(key, msg, sig []byte) (bool, error) {
	pub, err := btcec.ParsePubKey(key)
	if err != nil {
		return false, errs.Wrap(errs.KindJwsParseError, err, "parse secp256k1 public key")
	}

	r, s, err := fixedWidthToRS(sig)
	if err != nil {
		return false, nil //nolint:nilerr // malformed signature verifies false, not an error
	}

	der, err := rsToDER(r, s)
	if err != nil {
		return false, err
	}

	parsed, err := btcecdsa.ParseDERSignature(der)
	if err != nil {
		return false, nil //nolint:nilerr // unparsable signature verifies false, not an error
	}

	return parsed.Verify(sha256Digest(msg), pub), nil
}

func sha256Digest(msg []byte) []byte {
	d := sha256.Sum256(msg)
	return d[:]
}

func rsToFixedWidth(r, s *big.Int) []byte {
	out := make([]byte, rawSignatureSize)
	r.FillBytes(out[:fieldElementSize])
	s.FillBytes(out[fieldElementSize:])

	return out
}

func fixedWidthToRS(sig []byte) (*big.Int, *big.Int, error) {
	if len(sig) != rawSignatureSize {
		return nil, nil, errs.Newf(errs.KindJwsParseError, "expected %d byte signature, got %d", rawSignatureSize, len(sig))
	}

	r := new(big.Int).SetBytes(sig[:fieldElementSize])
	s := new(big.Int).SetBytes(sig[fieldElementSize:])

	return r, s, nil
}
