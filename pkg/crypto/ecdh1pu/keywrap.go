/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdh1pu

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// defaultIV is the RFC 3394 §2.2.3.1 default integrity check value,
// grounded on
// _examples/other_examples/e1e0bf84_shogo82148-goat__jwa-akw-akw.go.go.
var defaultIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

const chunkLen = 8

// aesKeyWrap wraps a key whose length is a multiple of 8 bytes with
// kek per RFC 3394, for the A256KW recipient algorithm.
func aesKeyWrap(kek, cek []byte) ([]byte, error) {
	if len(cek)%chunkLen != 0 || len(cek) == 0 {
		return nil, errs.New(errs.KindInvalidKeySize, "AES key wrap: key length must be a non-zero multiple of 8 bytes")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "AES key wrap: build cipher")
	}

	n := len(cek) / chunkLen
	r := make([][chunkLen]byte, n)

	for i := 0; i < n; i++ {
		copy(r[i][:], cek[i*chunkLen:(i+1)*chunkLen])
	}

	a := defaultIV

	var buf [aes.BlockSize]byte

	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:chunkLen], a[:])
			copy(buf[chunkLen:], r[i-1][:])
			block.Encrypt(buf[:], buf[:])

			t := uint64(n*j + i)
			msb := [chunkLen]byte{}
			binary.BigEndian.PutUint64(msb[:], t)

			for k := range a {
				a[k] = buf[k] ^ msb[k]
			}

			copy(r[i-1][:], buf[chunkLen:])
		}
	}

	out := make([]byte, (n+1)*chunkLen)
	copy(out[:chunkLen], a[:])

	for i := 0; i < n; i++ {
		copy(out[(i+1)*chunkLen:], r[i][:])
	}

	return out, nil
}

// aesKeyUnwrap reverses aesKeyWrap, returning an error if the
// integrity check value does not match (tampered or wrong kek).
func aesKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped)%chunkLen != 0 || len(wrapped) < 2*chunkLen {
		return nil, errs.New(errs.KindInvalidKeySize, "AES key unwrap: malformed wrapped key length")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "AES key unwrap: build cipher")
	}

	n := len(wrapped)/chunkLen - 1
	r := make([][chunkLen]byte, n)

	var a [chunkLen]byte
	copy(a[:], wrapped[:chunkLen])

	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[(i+1)*chunkLen:(i+2)*chunkLen])
	}

	var buf [aes.BlockSize]byte

	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			msb := [chunkLen]byte{}
			binary.BigEndian.PutUint64(msb[:], t)

			var axt [chunkLen]byte
			for k := range a {
				axt[k] = a[k] ^ msb[k]
			}

			copy(buf[:chunkLen], axt[:])
			copy(buf[chunkLen:], r[i-1][:])
			block.Decrypt(buf[:], buf[:])

			copy(a[:], buf[:chunkLen])
			copy(r[i-1][:], buf[chunkLen:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], defaultIV[:]) != 1 {
		return nil, errs.New(errs.KindPlugCryptoFailure, "AES key unwrap: integrity check failed")
	}

	out := make([]byte, n*chunkLen)
	for i := 0; i < n; i++ {
		copy(out[i*chunkLen:], r[i][:])
	}

	return out, nil
}

// xchachaKeyWrap wraps cek under kek with an all-zero nonce, for the
// XC20PKW recipient algorithm. Reusing a fixed nonce is safe only
// because kek is the one-time output of a fresh per-message
// Concat-KDF derivation, never reused across seal calls.
func xchachaKeyWrap(kek, cek []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "XC20PKW: build AEAD")
	}

	nonce := make([]byte, aead.NonceSize())

	return aead.Seal(nil, nonce, cek, nil), nil
}

func xchachaKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "XC20PKW: build AEAD")
	}

	nonce := make([]byte, aead.NonceSize())

	cek, err := aead.Open(nil, nonce, wrapped, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "XC20PKW: unwrap failed")
	}

	return cek, nil
}
