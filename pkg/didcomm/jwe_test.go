/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm_test

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm"
	"github.com/trustbloc/didcomm-go/pkg/resolver"
)

type fakeDocument struct {
	keys map[string][]byte // curve -> public key bytes
	kids map[string]string // curve -> kid
}

func (d fakeDocument) FindPublicKeyIDForCurve(curve string) (string, bool) {
	kid, ok := d.kids[curve]
	return kid, ok
}

func (d fakeDocument) PublicKeyBytes(kid string) ([]byte, bool) {
	for curve, k := range d.kids {
		if k == kid {
			key, ok := d.keys[curve]
			return key, ok
		}
	}

	return nil, false
}

type fakeResolver map[string]fakeDocument

func (r fakeResolver) Resolve(did string) (resolver.Document, bool) {
	doc, ok := r[did]
	return doc, ok
}

func generateX25519KeyPair(t *testing.T) (priv, pub []byte) {
	t.Helper()

	priv = make([]byte, 32)
	_, err := rand.Read(priv)
	require.NoError(t, err)

	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	require.NoError(t, err)

	return priv, pub
}

func generateP256KeyPair(t *testing.T) (priv, pub []byte) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	return key.Bytes(), key.PublicKey().Bytes()
}

// TestSealOpenXC20PRoundTrip mirrors scenario S1: a message sealed for
// a single recipient under XC20P opens back to the original body.
func TestSealOpenXC20PRoundTrip(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"hello":"world"}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:          crypto.XC20P,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1"},
		RecipientPublicKeys: [][]byte{bobPub},
	})
	require.NoError(t, err)
	require.NotEmpty(t, sealed)

	opened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"hello":"world"}`, string(opened.Body))
	require.Equal(t, "did:example:alice", opened.DidCommHeader.From)
}

// TestSealOpenA256GCMRoundTrip mirrors scenario S2.
func TestSealOpenA256GCMRoundTrip(t *testing.T) {
	alicePriv, alicePub := generateP256KeyPair(t)
	bobPriv, bobPub := generateP256KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"n":1}`)
	require.NoError(t, err)

	sealed, err := msg.AsFlatJwe().Seal(didcomm.SealParams{
		ContentAlg:          crypto.A256GCM,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1"},
		RecipientPublicKeys: [][]byte{bobPub},
	})
	require.NoError(t, err)

	opened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"n":1}`, string(opened.Body))
}

// TestSealOpenA256CBCRoundTrip exercises the third content algorithm,
// which shares a key-wrap alg with A256GCM but must still be
// distinguished correctly on Open via the protected header's `enc`.
func TestSealOpenA256CBCRoundTrip(t *testing.T) {
	alicePriv, alicePub := generateP256KeyPair(t)
	bobPriv, bobPub := generateP256KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"cbc":true}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:          crypto.A256CBC,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1"},
		RecipientPublicKeys: [][]byte{bobPub},
	})
	require.NoError(t, err)

	opened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"cbc":true}`, string(opened.Body))
}

// TestSealMultiRecipientEachOpensIndependently mirrors scenario S4:
// each recipient in a general (non-flat) JWE opens the same plaintext
// with its own private key, and a third party's key cannot open any
// entry.
func TestSealMultiRecipientEachOpensIndependently(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)
	carolPriv, carolPub := generateX25519KeyPair(t)
	davePriv, _ := generateX25519KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob", "did:example:carol"}).
		SetBody(`{"group":"meeting"}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:          crypto.XC20P,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1", "did:example:carol#1"},
		RecipientPublicKeys: [][]byte{bobPub, carolPub},
	})
	require.NoError(t, err)

	bobOpened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"group":"meeting"}`, string(bobOpened.Body))

	carolOpened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: carolPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"group":"meeting"}`, string(carolOpened.Body))

	_, err = didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: davePriv,
		SenderPublicKey:     alicePub,
	})
	require.Error(t, err)
}

// TestSealFlatJweRequiresSingleRecipient covers invariant 5.
func TestSealFlatJweRequiresSingleRecipient(t *testing.T) {
	alicePriv, _ := generateX25519KeyPair(t)
	_, bobPub := generateX25519KeyPair(t)
	_, carolPub := generateX25519KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob", "did:example:carol"}).
		SetBody(`{}`)
	require.NoError(t, err)

	_, err = msg.AsFlatJwe().Seal(didcomm.SealParams{
		ContentAlg:          crypto.XC20P,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1", "did:example:carol#1"},
		RecipientPublicKeys: [][]byte{bobPub, carolPub},
	})
	require.Error(t, err)
}

// TestSealNoRecipientsFails covers the NoJweRecipient error kind.
func TestSealNoRecipientsFails(t *testing.T) {
	alicePriv, _ := generateX25519KeyPair(t)

	msg := didcomm.New().From("did:example:alice")

	_, err := msg.Seal(didcomm.SealParams{
		ContentAlg:       crypto.XC20P,
		SenderPrivateKey: alicePriv,
		SenderKID:        "did:example:alice#1",
	})
	require.Error(t, err)
}

// TestSealResolvesRecipientKeyViaResolver covers the fallback path of
// SealParams when no explicit recipient public key is supplied: the
// recipient's key and kid come from the resolver instead.
func TestSealResolvesRecipientKeyViaResolver(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)

	res := fakeResolver{
		"did:example:bob": fakeDocument{
			keys: map[string][]byte{resolver.CurveX25519: bobPub},
			kids: map[string]string{resolver.CurveX25519: "did:example:bob#key-1"},
		},
	}

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"resolved":true}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:       crypto.XC20P,
		SenderPrivateKey: alicePriv,
		SenderKID:        "did:example:alice#1",
		Resolver:         res,
	})
	require.NoError(t, err)

	opened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"resolved":true}`, string(opened.Body))
}

// TestOpenResolvesSenderKeyViaResolver covers OpenParams' resolver
// fallback for the sender's public key, keyed off skid.
func TestOpenResolvesSenderKeyViaResolver(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)

	res := fakeResolver{
		"did:example:alice": fakeDocument{
			keys: map[string][]byte{resolver.CurveX25519: alicePub},
			kids: map[string]string{resolver.CurveX25519: "did:example:alice#1"},
		},
	}

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"via":"resolver"}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:          crypto.XC20P,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1"},
		RecipientPublicKeys: [][]byte{bobPub},
	})
	require.NoError(t, err)

	opened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		Resolver:            res,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"via":"resolver"}`, string(opened.Body))
}

// TestAsJweSetsHeaderFromInlineKey covers the as_jwe builder's
// inline-recipient-key branch.
func TestAsJweSetsHeaderFromInlineKey(t *testing.T) {
	_, bobPub := generateX25519KeyPair(t)

	msg := didcomm.New().AsJwe(crypto.XC20P, bobPub, nil)

	require.Equal(t, crypto.XC20P.EncName(), msg.JwmHeader.Enc)
	require.Equal(t, crypto.XC20P.KeyWrapAlg(), msg.JwmHeader.Alg)
	require.NotEmpty(t, msg.JwmHeader.Kid)
}

// TestAsJweResolvesKidFromSenderDocument covers the as_jwe builder's
// resolver fallback branch.
func TestAsJweResolvesKidFromSenderDocument(t *testing.T) {
	_, alicePub := generateP256KeyPair(t)

	res := fakeResolver{
		"did:example:alice": fakeDocument{
			keys: map[string][]byte{resolver.CurveP256: alicePub},
			kids: map[string]string{resolver.CurveP256: "did:example:alice#key-1"},
		},
	}

	msg := didcomm.New().From("did:example:alice").AsJwe(crypto.A256GCM, nil, res)

	require.Equal(t, "did:example:alice#key-1", msg.JwmHeader.Kid)
}

// TestGetIVFlatForm covers testable property 6: GetIV decodes the top
// level `iv` field of a flattened JWE JSON object to exactly 24 bytes.
func TestGetIVFlatForm(t *testing.T) {
	nonce := make([]byte, 24)
	_, err := rand.Read(nonce)
	require.NoError(t, err)

	doc := `{"protected":"eyJ0eXAiOiJhcHBsaWNhdGlvbi9kaWRjb21tLWVuY3J5cHRlZCtqc29uIn0","iv":"` +
		base64.RawURLEncoding.EncodeToString(nonce) + `","ciphertext":"","tag":""}`

	iv, err := didcomm.GetIV([]byte(doc))
	require.NoError(t, err)
	require.Len(t, iv, 24)
	require.Equal(t, nonce, iv)
}

// TestGetIVCompactForm covers the compact-header variant of GetIV.
func TestGetIVCompactForm(t *testing.T) {
	nonce := make([]byte, 24)
	_, err := rand.Read(nonce)
	require.NoError(t, err)

	header := `{"iv":"` + base64.RawURLEncoding.EncodeToString(nonce) + `"}`
	headerB64 := base64.RawURLEncoding.EncodeToString([]byte(header))

	compact := headerB64 + "..."

	iv, err := didcomm.GetIV([]byte(compact))
	require.NoError(t, err)
	require.Equal(t, nonce, iv)
}

// TestGetIVWrongLengthFails covers the size-error branch of GetIV.
func TestGetIVWrongLengthFails(t *testing.T) {
	short := make([]byte, 12)

	doc := `{"protected":"x","iv":"` + base64.RawURLEncoding.EncodeToString(short) + `","ciphertext":""}`

	_, err := didcomm.GetIV([]byte(doc))
	require.Error(t, err)
}

// TestSealThenOpenPreservesInnerTyp covers invariant 7: sealing must
// not overwrite the plaintext message's own typ, so the opened message
// still carries the plain typ.
func TestSealThenOpenPreservesInnerTyp(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"x":1}`)
	require.NoError(t, err)

	sealed, err := msg.Seal(didcomm.SealParams{
		ContentAlg:          crypto.XC20P,
		SenderPrivateKey:    alicePriv,
		SenderKID:           "did:example:alice#1",
		RecipientKIDs:       []string{"did:example:bob#1"},
		RecipientPublicKeys: [][]byte{bobPub},
	})
	require.NoError(t, err)

	opened, err := didcomm.Open([]byte(sealed), didcomm.OpenParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.Equal(t, didcomm.DidCommRaw.String(), opened.JwmHeader.Typ)
}
