/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// Mediated is the body of a forward envelope, per spec.md §4.H: next
// is the original recipient the mediator should deliver to, payload
// is the bytes of the inner sealed JWE.
type Mediated struct {
	Next    string      `json:"next"`
	Payload rawURLBytes `json:"payload"`
}

// RoutedByParams are the inputs to RoutedBy.
type RoutedByParams struct {
	Inner             SealParams // seals self to its original recipients
	MediatorDID       string
	MediatorKID       string // optional; falls back to MediatorDID
	MediatorPublicKey []byte // optional; falls back to Inner.Resolver
}

// RoutedBy wraps self in a forward envelope addressed to a mediator,
// per spec.md §4.H: self is sealed to its original recipients first,
// then that sealed JWE becomes the opaque payload of a new JWM typed
// DidCommForward and sealed again to the mediator. The result is the
// sealed forward envelope as a string, not a Message, so RoutedBy
// cannot be called on it to add a further mediator hop.
func (m Message) RoutedBy(p RoutedByParams) (string, error) {
	if len(m.DidCommHeader.To) == 0 {
		return "", errs.New(errs.KindNoJweRecipient, "routed_by: message has no original recipients")
	}

	originalTo0 := m.DidCommHeader.To[0]

	innerBytes, err := m.Seal(p.Inner)
	if err != nil {
		return "", err
	}

	mediated := Mediated{Next: originalTo0, Payload: rawURLBytes(innerBytes)}

	mediatedJSON, err := json.Marshal(mediated)
	if err != nil {
		return "", errs.Wrap(errs.KindSerializationError, err, "marshal mediated body")
	}

	wrapper := New().From(m.DidCommHeader.From).To([]string{p.MediatorDID}).Typ(DidCommForward)

	wrapper, err = wrapper.SetBody(string(mediatedJSON))
	if err != nil {
		return "", err
	}

	wrapParams := SealParams{
		ContentAlg:       p.Inner.ContentAlg,
		SenderPrivateKey: p.Inner.SenderPrivateKey,
		SenderKID:        p.Inner.SenderKID,
		Resolver:         p.Inner.Resolver,
	}

	if p.MediatorPublicKey != nil {
		mediatorKID := p.MediatorKID
		if mediatorKID == "" {
			mediatorKID = p.MediatorDID
		}

		wrapParams.RecipientKIDs = []string{mediatorKID}
		wrapParams.RecipientPublicKeys = [][]byte{p.MediatorPublicKey}
	}

	return wrapper.Seal(wrapParams)
}
