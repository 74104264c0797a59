/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ecdh1pu implements per-recipient content-encryption-key
// wrapping for DIDComm's sender-authenticated encryption, per
// spec.md §4.D: ECDH-1PU key agreement feeding a Concat-KDF (NIST
// SP 800-56A rev3, as profiled by RFC 7518 §4.6) whose output wraps
// the 32-byte CEK with either AES Key Wrap (RFC 3394) or an
// XChaCha20-Poly1305 wrap, matching the algorithm the content cipher
// uses.
//
// No dependency in this module's retrieval pack exports Concat-KDF or
// AES Key Wrap as an importable function — every JOSE library that
// needs them (including the ones in this pack, see
// _examples/other_examples/...shogo82148-goat__jwa-ecdhes-ecdhes.go.go
// and .../jwa-akw-akw.go.go) hand-rolls them internally the same way
// this package does.
package ecdh1pu

import (
	"encoding/binary"
	"hash"

	sha256simd "github.com/minio/sha256-simd"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// concatKDF derives keyDataLen bytes from the shared secret z per
// RFC 7518 §4.6: repeated-hash(counter || z || otherInfo), where
// otherInfo = AlgorithmID || PartyUInfo || PartyVInfo || SuppPubInfo.
// Each of AlgorithmID/PartyUInfo/PartyVInfo is itself a 4-byte
// big-endian length prefix followed by its bytes.
func concatKDF(z, algorithmID, partyUInfo, partyVInfo []byte, keyDataLen int) ([]byte, error) {
	if keyDataLen <= 0 {
		return nil, errs.New(errs.KindGeneric, "concat-kdf: keyDataLen must be positive")
	}

	otherInfo := buildOtherInfo(algorithmID, partyUInfo, partyVInfo, keyDataLen)

	h := sha256simd.New()
	hashLen := h.Size()
	rounds := (keyDataLen + hashLen - 1) / hashLen

	out := make([]byte, 0, rounds*hashLen)

	for counter := uint32(1); counter <= uint32(rounds); counter++ {
		out = append(out, round(h, counter, z, otherInfo)...)
	}

	return out[:keyDataLen], nil
}

func round(h hash.Hash, counter uint32, z, otherInfo []byte) []byte {
	h.Reset()

	var counterBuf [4]byte
	binary.BigEndian.PutUint32(counterBuf[:], counter)

	h.Write(counterBuf[:]) //nolint:errcheck // hash.Hash.Write never errors
	h.Write(z)              //nolint:errcheck
	h.Write(otherInfo)      //nolint:errcheck

	return h.Sum(nil)
}

func buildOtherInfo(algorithmID, partyUInfo, partyVInfo []byte, keyDataLen int) []byte {
	out := make([]byte, 0, 12+len(algorithmID)+len(partyUInfo)+len(partyVInfo)+4)
	out = appendLengthPrefixed(out, algorithmID)
	out = appendLengthPrefixed(out, partyUInfo)
	out = appendLengthPrefixed(out, partyVInfo)

	var suppPubInfo [4]byte
	binary.BigEndian.PutUint32(suppPubInfo[:], uint32(keyDataLen*8)) //nolint:gosec // bounded to 32/16-byte keys
	out = append(out, suppPubInfo[:]...)

	return out
}

func appendLengthPrefixed(out, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data))) //nolint:gosec // header fields are always tiny
	out = append(out, lenBuf[:]...)

	return append(out, data...)
}
