/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm"
)

// TestRoutedByThenReceiveUnwindsMediatorHop mirrors scenario S5: alice
// seals a message to bob and routes it through a mediator; the
// mediator receives a DidCommForward whose body is a Mediated object,
// and feeding its payload into Receive with bob's key recovers
// alice's original body.
func TestRoutedByThenReceiveUnwindsMediatorHop(t *testing.T) {
	alicePriv, alicePub := generateX25519KeyPair(t)
	bobPriv, bobPub := generateX25519KeyPair(t)
	mediatorPriv, mediatorPub := generateX25519KeyPair(t)

	msg, err := didcomm.New().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		SetBody(`{"secret":"hello bob"}`)
	require.NoError(t, err)

	routed, err := msg.RoutedBy(didcomm.RoutedByParams{
		Inner: didcomm.SealParams{
			ContentAlg:          crypto.XC20P,
			SenderPrivateKey:    alicePriv,
			SenderKID:           "did:example:alice#1",
			RecipientKIDs:       []string{"did:example:bob#1"},
			RecipientPublicKeys: [][]byte{bobPub},
		},
		MediatorDID:       "did:example:mediator",
		MediatorKID:       "did:example:mediator#1",
		MediatorPublicKey: mediatorPub,
	})
	require.NoError(t, err)

	forward, err := didcomm.Receive([]byte(routed), didcomm.ReceiveParams{
		RecipientPrivateKey: mediatorPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.Equal(t, didcomm.DidCommForward.String(), forward.JwmHeader.Typ)

	var mediated didcomm.Mediated

	err = json.Unmarshal(forward.Body, &mediated)
	require.NoError(t, err)
	require.Equal(t, "did:example:bob", mediated.Next)

	delivered, err := didcomm.Receive(mediated.Payload, didcomm.ReceiveParams{
		RecipientPrivateKey: bobPriv,
		SenderPublicKey:     alicePub,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"secret":"hello bob"}`, string(delivered.Body))
}
