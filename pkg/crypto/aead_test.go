/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
)

func TestXC20PRoundTrip(t *testing.T) {
	key := []byte("super duper key 32 bytes long!!!")
	nonce := make([]byte, 24)
	_, err := rand.Read(nonce)
	require.NoError(t, err)

	plaintext := []byte(`{"test":"message's body - can be anything..."}`)
	aad := []byte("aad")

	ct, err := crypto.XC20P.Encryptor()(nonce, key, plaintext, aad)
	require.NoError(t, err)

	pt, err := crypto.XC20P.Decryptor()(nonce, key, ct, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestA256GCMRoundTrip(t *testing.T) {
	key := []byte("super duper key 32 bytes long!!!")
	nonce := make([]byte, 12)
	_, err := rand.Read(nonce)
	require.NoError(t, err)

	plaintext := []byte(`{"example":"message's body - can be anything..."}`)
	aad := []byte("aad")

	ct, err := crypto.A256GCM.Encryptor()(nonce, key, plaintext, aad)
	require.NoError(t, err)

	pt, err := crypto.A256GCM.Decryptor()(nonce, key, ct, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestA256GCMNonceTruncatedTo12Bytes(t *testing.T) {
	key := []byte("super duper key 32 bytes long!!!")
	longNonce := make([]byte, 24)
	_, err := rand.Read(longNonce)
	require.NoError(t, err)

	plaintext := []byte("hello")

	ct, err := crypto.A256GCM.Encryptor()(longNonce, key, plaintext, nil)
	require.NoError(t, err)

	pt, err := crypto.A256GCM.Decryptor()(longNonce, key, ct, nil)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestA256CBCRoundTrip(t *testing.T) {
	key := []byte("super duper key 32 bytes long!!!")
	iv := make([]byte, 16)
	_, err := rand.Read(iv)
	require.NoError(t, err)

	plaintext := []byte("a message that is not block-aligned")

	ct, err := crypto.A256CBC.Encryptor()(iv, key, plaintext, nil)
	require.NoError(t, err)

	pt, err := crypto.A256CBC.Decryptor()(iv, key, ct, nil)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestInvalidKeySizeRejected(t *testing.T) {
	_, err := crypto.XC20P.Encryptor()(make([]byte, 24), []byte("too short"), []byte("x"), nil)
	require.Error(t, err)
}

func TestShortNonceRejected(t *testing.T) {
	key := []byte("super duper key 32 bytes long!!!")
	_, err := crypto.XC20P.Encryptor()(make([]byte, 4), key, []byte("x"), nil)
	require.Error(t, err)
}
