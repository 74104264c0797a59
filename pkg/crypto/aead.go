/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

func checkNonce(nonce []byte, expected int) error {
	if len(nonce) < expected {
		return errs.New(errs.KindPlugCryptoFailure, "nonce too short")
	}

	return nil
}

func checkKeySize(key []byte, expected int, what string) error {
	if len(key) != expected {
		return errs.Newf(errs.KindInvalidKeySize, "expected %d byte %s, got %d", expected, what, len(key))
	}

	return nil
}

// encryptXC20P implements the XC20P branch of spec.md §4.B: 24-byte
// nonce, 32-byte key, AEAD with AAD, tag appended to ciphertext.
func encryptXC20P(nonce, key, plaintext, aad []byte) ([]byte, error) {
	if err := checkNonce(nonce, chacha20poly1305.NonceSizeX); err != nil {
		return nil, err
	}

	if err := checkKeySize(key, chacha20poly1305.KeySize, "XC20P key"); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init XChaCha20-Poly1305")
	}

	return aead.Seal(nil, nonce[:chacha20poly1305.NonceSizeX], plaintext, aad), nil
}

func decryptXC20P(nonce, key, ciphertext, aad []byte) ([]byte, error) {
	if err := checkNonce(nonce, chacha20poly1305.NonceSizeX); err != nil {
		return nil, err
	}

	if err := checkKeySize(key, chacha20poly1305.KeySize, "XC20P key"); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init XChaCha20-Poly1305")
	}

	pt, err := aead.Open(nil, nonce[:chacha20poly1305.NonceSizeX], ciphertext, aad)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "XChaCha20-Poly1305 tag verification failed")
	}

	return pt, nil
}

// encryptA256GCM implements the A256GCM branch of spec.md §4.B: a
// 12-byte nonce (longer buffers are truncated to the first 12 bytes),
// 32-byte key, tag appended to ciphertext.
func encryptA256GCM(nonce, key, plaintext, aad []byte) ([]byte, error) {
	if err := checkNonce(nonce, 12); err != nil {
		return nil, err
	}

	if err := checkKeySize(key, 32, "A256GCM key"); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init AES-256 block cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init AES-GCM")
	}

	return gcm.Seal(nil, nonce[:12], plaintext, aad), nil
}

func decryptA256GCM(nonce, key, ciphertext, aad []byte) ([]byte, error) {
	if err := checkNonce(nonce, 12); err != nil {
		return nil, err
	}

	if err := checkKeySize(key, 32, "A256GCM key"); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init AES-256 block cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init AES-GCM")
	}

	pt, err := gcm.Open(nil, nonce[:12], ciphertext, aad)
	if err != nil {
		return nil, errs.Wrap(errs.KindPlugCryptoFailure, err, "AES-GCM tag verification failed")
	}

	return pt, nil
}

// encryptA256CBC implements the A256CBC branch of spec.md §4.B:
// 16-byte IV, 32-byte key, PKCS#7 padding, no AEAD (aad is ignored, no
// tag). Decryption was left unimplemented (`todo!()`) in the original
// source; it is fully implemented here per Open Question 1.
func encryptA256CBC(nonce, key, plaintext, _ []byte) ([]byte, error) {
	if err := checkKeySize(key, 32, "A256CBC key"); err != nil {
		return nil, err
	}

	if len(nonce) != 16 {
		return nil, errs.New(errs.KindInvalidKeySize, "expected 16 byte IV")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init AES-256 block cipher")
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))

	mode := cipher.NewCBCEncrypter(block, nonce)
	mode.CryptBlocks(ciphertext, padded)

	return ciphertext, nil
}

func decryptA256CBC(nonce, key, ciphertext, _ []byte) ([]byte, error) {
	if err := checkKeySize(key, 32, "A256CBC key"); err != nil {
		return nil, err
	}

	if len(nonce) != 16 {
		return nil, errs.New(errs.KindInvalidKeySize, "expected 16 byte IV")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "init AES-256 block cipher")
	}

	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, errs.New(errs.KindPlugCryptoFailure, "A256CBC ciphertext is not a multiple of the block size")
	}

	padded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, nonce)
	mode.CryptBlocks(padded, ciphertext)

	return pkcs7Unpad(padded, block.BlockSize())
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)

	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errs.New(errs.KindPlugCryptoFailure, "cannot unpad empty buffer")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errs.New(errs.KindPlugCryptoFailure, "invalid PKCS#7 padding")
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errs.New(errs.KindPlugCryptoFailure, "invalid PKCS#7 padding")
		}
	}

	return data[:len(data)-padLen], nil
}
