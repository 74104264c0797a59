/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm"
)

// TestReceivePlainIsIdempotent covers the receive pipeline's plain
// branch: bytes that are already a plain JWM return immediately with
// no keys required.
func TestReceivePlainIsIdempotent(t *testing.T) {
	msg, err := didcomm.New().From("did:example:alice").SetBody(`{"greeting":"hi"}`)
	require.NoError(t, err)

	raw, err := msg.AsRawJson()
	require.NoError(t, err)

	received, err := didcomm.Receive([]byte(raw), didcomm.ReceiveParams{})
	require.NoError(t, err)
	require.JSONEq(t, `{"greeting":"hi"}`, string(received.Body))
}

// TestReceiveSignedOnlyMessage mirrors scenario S3: a signed-only
// message unwraps to its original body and preserves the inner typ.
func TestReceiveSignedOnlyMessage(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg, err := didcomm.New().From("did:example:alice").SetBody(`{"x":"y"}`)
	require.NoError(t, err)

	signed, err := msg.Sign(crypto.EdDSA, "did:example:alice#1", priv.Seed())
	require.NoError(t, err)

	received, err := didcomm.Receive([]byte(signed), didcomm.ReceiveParams{
		VerifyingKey: pub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"x":"y"}`, string(received.Body))
	require.Equal(t, didcomm.DidCommRaw.String(), received.JwmHeader.Typ)
}

// TestReceiveSealedMessageRequiresRecipientKey covers the encrypted
// branch's key requirement.
func TestReceiveSealedMessageRequiresRecipientKey(t *testing.T) {
	alicePriv, _ := generateX25519KeyPair(t)
	_, bobPub := generateX25519KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:          crypto.XC20P,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1"},
		RecipientPublicKeys: [][]byte{bobPub},
	})
	require.NoError(t, err)

	_, err = didcomm.Receive([]byte(sealed), didcomm.ReceiveParams{})
	require.Error(t, err)
}

// TestReceiveSealedThenSignedReenters exercises a sign-then-seal stack:
// Receive must unwrap the encrypted outer layer and then the signed
// inner layer in one call.
func TestReceiveSealedThenSignedReenters(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)
	sigPub, sigPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"stacked":true}`)
	require.NoError(t, err)

	sealed, err := msg.SealSigned(didcomm.SealSignedParams{
		SigAlg:     crypto.EdDSA,
		SigKID:     "did:example:alice#sig-1",
		SigningKey: sigPriv.Seed(),
		Seal: didcomm.SealParams{
			ContentAlg:          crypto.XC20P,
			SenderPrivateKey:    alicePriv,
			SenderKID:           "did:example:alice#1",
			RecipientKIDs:       []string{"did:example:bob#1"},
			RecipientPublicKeys: [][]byte{bobPub},
		},
	})
	require.NoError(t, err)

	received, err := didcomm.Receive([]byte(sealed), didcomm.ReceiveParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
		VerifyingKey:        sigPub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"stacked":true}`, string(received.Body))
}
