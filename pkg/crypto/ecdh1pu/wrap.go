/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdh1pu

import (
	"crypto/ecdh"
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// Key wrap algorithm identifiers, matching the `alg` JWE header value
// for ECDH-1PU per-recipient key agreement, grounded on the
// ECDH1PUA256KWAlg/ECDH1PUXC20PKWAlg constants in
// _examples/rolsonquadras-aries-framework-go/pkg/crypto/tinkcrypto/crypto.go.
const (
	AlgA256KW  = "ECDH-1PU+A256KW"
	AlgXC20PKW = "ECDH-1PU+XC20PKW"
)

const cekKeyLen = 32

// RecipientHeader carries the per-recipient JWE header fields that
// ECDH-1PU key agreement produces, per spec.md §4.D.
type RecipientHeader struct {
	Alg string
	Kid string
	Epk crypto.JWK
	Apu []byte
	Apv []byte
}

// WrapParams are the inputs to WrapKey for a single recipient.
type WrapParams struct {
	KeyWrapAlg         string
	CEK                []byte
	SenderKID          string
	SenderPrivateKey   []byte
	RecipientKID       string
	RecipientPublicKey []byte
}

// WrappedKey is the result of wrapping a CEK for one recipient.
type WrappedKey struct {
	EncryptedKey []byte
	Header       RecipientHeader
}

// UnwrapParams are the inputs to UnwrapKey, mirroring the header
// fields a recipient reads off an incoming JWE.
type UnwrapParams struct {
	KeyWrapAlg          string
	EncryptedKey        []byte
	Epk                 crypto.JWK
	Apu                 []byte
	Apv                 []byte
	RecipientPrivateKey []byte
	SenderPublicKey     []byte
}

// WrapKey performs ECDH-1PU key agreement for one recipient and wraps
// cek under the derived key-encryption key, per spec.md §4.D: it
// generates a fresh ephemeral keypair, computes Ze (ephemeral-static)
// and Zs (static-static, sender-authenticated), concatenates them,
// and runs the result through Concat-KDF to derive a 32-byte KEK.
func WrapKey(p WrapParams) (*WrappedKey, error) {
	if len(p.CEK) != cekKeyLen {
		return nil, errs.Newf(errs.KindInvalidKeySize, "ECDH-1PU wrap: CEK must be %d bytes, got %d", cekKeyLen, len(p.CEK))
	}

	switch p.KeyWrapAlg {
	case AlgA256KW:
		return wrapP256(p)
	case AlgXC20PKW:
		return wrapX25519(p)
	default:
		return nil, errs.Newf(errs.KindJweParseError, "ECDH-1PU wrap: unsupported alg %q", p.KeyWrapAlg)
	}
}

// UnwrapKey reverses WrapKey from the recipient's side.
func UnwrapKey(p UnwrapParams) ([]byte, error) {
	switch p.KeyWrapAlg {
	case AlgA256KW:
		return unwrapP256(p)
	case AlgXC20PKW:
		return unwrapX25519(p)
	default:
		return nil, errs.Newf(errs.KindJweParseError, "ECDH-1PU unwrap: unsupported alg %q", p.KeyWrapAlg)
	}
}

func wrapX25519(p WrapParams) (*WrappedKey, error) {
	if len(p.SenderPrivateKey) != 32 || len(p.RecipientPublicKey) != 32 {
		return nil, errs.New(errs.KindInvalidKeySize, "ECDH-1PU X25519 wrap: keys must be 32 bytes")
	}

	var ephPriv [32]byte
	if _, err := rand.Read(ephPriv[:]); err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU X25519 wrap: generate ephemeral key")
	}

	ephPub, err := curve25519.X25519(ephPriv[:], curve25519.Basepoint)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU X25519 wrap: derive ephemeral public key")
	}

	ze, err := curve25519.X25519(ephPriv[:], p.RecipientPublicKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU X25519 wrap: compute Ze")
	}

	zs, err := curve25519.X25519(p.SenderPrivateKey, p.RecipientPublicKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU X25519 wrap: compute Zs")
	}

	apu, apv := partyInfo(p.SenderKID, p.RecipientKID)

	kek, err := concatKDF(append(ze, zs...), []byte(p.KeyWrapAlg), apu, apv, cekKeyLen)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := xchachaKeyWrap(kek, p.CEK)
	if err != nil {
		return nil, err
	}

	return &WrappedKey{
		EncryptedKey: encryptedKey,
		Header: RecipientHeader{
			Alg: p.KeyWrapAlg,
			Kid: p.RecipientKID,
			Epk: crypto.NewOKPJWK(ephPub),
			Apu: apu,
			Apv: apv,
		},
	}, nil
}

func unwrapX25519(p UnwrapParams) ([]byte, error) {
	if len(p.RecipientPrivateKey) != 32 || len(p.SenderPublicKey) != 32 {
		return nil, errs.New(errs.KindInvalidKeySize, "ECDH-1PU X25519 unwrap: keys must be 32 bytes")
	}

	ephPub, err := p.Epk.OKPPublicKey()
	if err != nil {
		return nil, errs.Wrap(errs.KindJweParseError, err, "ECDH-1PU X25519 unwrap: decode epk")
	}

	ze, err := curve25519.X25519(p.RecipientPrivateKey, ephPub)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU X25519 unwrap: compute Ze")
	}

	zs, err := curve25519.X25519(p.RecipientPrivateKey, p.SenderPublicKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU X25519 unwrap: compute Zs")
	}

	kek, err := concatKDF(append(ze, zs...), []byte(p.KeyWrapAlg), p.Apu, p.Apv, cekKeyLen)
	if err != nil {
		return nil, err
	}

	return xchachaKeyUnwrap(kek, p.EncryptedKey)
}

func wrapP256(p WrapParams) (*WrappedKey, error) {
	curve := ecdh.P256()

	senderPriv, err := curve.NewPrivateKey(p.SenderPrivateKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidKeySize, err, "ECDH-1PU P-256 wrap: parse sender private key")
	}

	recipientPub, err := curve.NewPublicKey(p.RecipientPublicKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidKeySize, err, "ECDH-1PU P-256 wrap: parse recipient public key")
	}

	ephPriv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU P-256 wrap: generate ephemeral key")
	}

	ze, err := ephPriv.ECDH(recipientPub)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU P-256 wrap: compute Ze")
	}

	zs, err := senderPriv.ECDH(recipientPub)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU P-256 wrap: compute Zs")
	}

	apu, apv := partyInfo(p.SenderKID, p.RecipientKID)

	kek, err := concatKDF(append(ze, zs...), []byte(p.KeyWrapAlg), apu, apv, cekKeyLen)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := aesKeyWrap(kek, p.CEK)
	if err != nil {
		return nil, err
	}

	ephPubBytes := ephPriv.PublicKey().Bytes() // uncompressed SEC1: 0x04 || x || y
	x, y := ephPubBytes[1:33], ephPubBytes[33:65]

	return &WrappedKey{
		EncryptedKey: encryptedKey,
		Header: RecipientHeader{
			Alg: p.KeyWrapAlg,
			Kid: p.RecipientKID,
			Epk: crypto.NewECJWK(x, y),
			Apu: apu,
			Apv: apv,
		},
	}, nil
}

func unwrapP256(p UnwrapParams) ([]byte, error) {
	curve := ecdh.P256()

	recipientPriv, err := curve.NewPrivateKey(p.RecipientPrivateKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidKeySize, err, "ECDH-1PU P-256 unwrap: parse recipient private key")
	}

	senderPub, err := curve.NewPublicKey(p.SenderPublicKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidKeySize, err, "ECDH-1PU P-256 unwrap: parse sender public key")
	}

	x, y, err := p.Epk.ECPublicKey()
	if err != nil {
		return nil, errs.Wrap(errs.KindJweParseError, err, "ECDH-1PU P-256 unwrap: decode epk")
	}

	ephPubBytes := append([]byte{0x04}, append(x, y...)...)

	ephPub, err := curve.NewPublicKey(ephPubBytes)
	if err != nil {
		return nil, errs.Wrap(errs.KindJweParseError, err, "ECDH-1PU P-256 unwrap: parse epk")
	}

	ze, err := recipientPriv.ECDH(ephPub)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU P-256 unwrap: compute Ze")
	}

	zs, err := recipientPriv.ECDH(senderPub)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "ECDH-1PU P-256 unwrap: compute Zs")
	}

	kek, err := concatKDF(append(ze, zs...), []byte(p.KeyWrapAlg), p.Apu, p.Apv, cekKeyLen)
	if err != nil {
		return nil, err
	}

	return aesKeyUnwrap(kek, p.EncryptedKey)
}

// partyInfo builds apu/apv from sender/recipient key identifiers, per
// spec.md §4.D. It is just a byte conversion, not a fallback lookup:
// when the caller has no recipient kid it passes the raw DID in its
// place, and an empty sender kid yields an empty apu.
func partyInfo(senderKID, recipientKID string) (apu, apv []byte) {
	return []byte(senderKID), []byte(recipientKID)
}
