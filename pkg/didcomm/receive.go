/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/errs"
	"github.com/trustbloc/didcomm-go/pkg/resolver"
)

// maxReceiveDepth bounds the sniff-decrypt-reenter loop in Receive
// against a pathologically or maliciously nested envelope.
const maxReceiveDepth = 8

// ReceiveParams are the inputs to Receive. RecipientPrivateKey is
// required whenever an encrypted layer is encountered; VerifyingKey is
// required whenever a signed layer is encountered. Both may be left
// nil for an envelope that turns out to be plain.
type ReceiveParams struct {
	RecipientPrivateKey []byte
	SenderPublicKey     []byte
	VerifyingKey        []byte
	Resolver            resolver.Resolver
}

// Receive implements the receive pipeline of spec.md §4.I: it sniffs
// the envelope's typ, unwraps one encrypted or signed layer, and
// re-enters until a plain JWM is reached. It is idempotent — bytes
// that are already plain JSON return immediately — and transparently
// unwinds forward envelopes and signed-then-encrypted stacks, since
// each unwrap just produces new bytes fed back into the same sniff.
func Receive(incoming []byte, p ReceiveParams) (Message, error) {
	data := incoming

	for depth := 0; depth < maxReceiveDepth; depth++ {
		typ, encrypted, err := sniffTyp(data)
		if err != nil {
			return Message{}, err
		}

		switch {
		case encrypted:
			if len(p.RecipientPrivateKey) == 0 {
				return Message{}, errs.New(errs.KindInvalidKeySize, "receive: encrypted envelope requires a recipient private key")
			}

			opened, err := Open(data, OpenParams{
				RecipientPrivateKey: p.RecipientPrivateKey,
				SenderPublicKey:     p.SenderPublicKey,
				Resolver:            p.Resolver,
			})
			if err != nil {
				return Message{}, err
			}

			raw, err := opened.AsRawJson()
			if err != nil {
				return Message{}, err
			}

			data = []byte(raw)

			continue

		case typ == DidCommJws:
			if len(p.VerifyingKey) == 0 {
				return Message{}, errs.New(errs.KindJwsParseError, "receive: signed envelope requires a verifying key")
			}

			verified, err := Verify(jwsPayloadOrSelf(data), p.VerifyingKey)
			if err != nil {
				return Message{}, err
			}

			raw, err := verified.AsRawJson()
			if err != nil {
				return Message{}, err
			}

			data = []byte(raw)

			continue

		default:
			return messageFromJSON(data)
		}
	}

	return Message{}, errs.New(errs.KindJwmHeaderParseError, "receive: envelope nesting exceeds the depth limit")
}

// jwsPayloadOrSelf returns the nested JWS bytes held under a DIDComm
// wrapper's `body` field, as seal_signed produces, or data itself when
// it is already a bare top-level JWS (the sign-only shape): a JWS wire
// object never carries a `body` key, so presence of one is an
// unambiguous signal that the real JWS is nested.
func jwsPayloadOrSelf(data []byte) []byte {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return data
	}

	if body, ok := probe["body"]; ok {
		return body
	}

	return data
}

// sniffTyp identifies the current layer's type without fully parsing
// it: encrypted=true when the bytes are a JWE (the typ lives in the
// base64url protected header rather than at the top level); otherwise
// typ is read straight off the top-level object, defaulting to
// DidCommRaw when absent — per spec.md §4.I step 1.
func sniffTyp(data []byte) (typ MessageType, encrypted bool, err error) {
	var probe map[string]json.RawMessage
	if uerr := json.Unmarshal(data, &probe); uerr != nil {
		return 0, false, errs.Wrap(errs.KindJwmHeaderParseError, uerr, "receive: malformed envelope")
	}

	protectedRaw, hasProtected := probe["protected"]
	_, hasRecipients := probe["recipients"]
	_, hasCiphertext := probe["ciphertext"]

	if hasProtected && (hasRecipients || hasCiphertext) {
		// recipients/ciphertext only ever appear on a JWE; its protected
		// typ is always the encrypted type, while the message's own typ
		// lives in the decrypted payload, so the caller must decrypt
		// before the real typ is known.
		return 0, true, nil
	}

	if hasProtected {
		// flattened JWS: typ lives in the protected header too.
		var protectedB64 string
		if uerr := json.Unmarshal(protectedRaw, &protectedB64); uerr != nil {
			return 0, false, errs.Wrap(errs.KindJwsParseError, uerr, "receive: decode protected header")
		}

		protectedJSON, derr := decodeB64URL(protectedB64)
		if derr != nil {
			return 0, false, derr
		}

		var hdr struct {
			Typ string `json:"typ"`
		}

		if uerr := json.Unmarshal(protectedJSON, &hdr); uerr != nil {
			return 0, false, errs.Wrap(errs.KindJwsParseError, uerr, "receive: decode protected header fields")
		}

		t, perr := ParseMessageType(hdr.Typ)

		return t, false, perr
	}

	if sigsRaw, ok := probe["signatures"]; ok {
		var sigs []struct {
			Protected string `json:"protected"`
		}

		if uerr := json.Unmarshal(sigsRaw, &sigs); uerr != nil || len(sigs) == 0 {
			return 0, false, errs.New(errs.KindJwsParseError, "receive: general jws has no signatures")
		}

		protectedJSON, derr := decodeB64URL(sigs[0].Protected)
		if derr != nil {
			return 0, false, derr
		}

		var hdr struct {
			Typ string `json:"typ"`
		}

		if uerr := json.Unmarshal(protectedJSON, &hdr); uerr != nil {
			return 0, false, errs.Wrap(errs.KindJwsParseError, uerr, "receive: decode protected header fields")
		}

		t, perr := ParseMessageType(hdr.Typ)

		return t, false, perr
	}

	typRaw, ok := probe["typ"]
	if !ok {
		return DidCommRaw, false, nil
	}

	var typStr string
	if uerr := json.Unmarshal(typRaw, &typStr); uerr != nil {
		return 0, false, errs.Wrap(errs.KindJwmHeaderParseError, uerr, "receive: decode top-level typ")
	}

	t, perr := ParseMessageType(typStr)

	return t, false, perr
}

// SealSignedParams are the inputs to SealSigned.
type SealSignedParams struct {
	SigAlg     crypto.SignatureAlgorithm
	SigKID     string
	SigningKey []byte
	Seal       SealParams
}

// SealSigned implements the combined seal-and-sign operation of
// spec.md §4.J: self is signed first, the resulting JWS JSON becomes
// the body of a fresh outer message typed DidCommJws, and that outer
// message is sealed — so its protected typ becomes the encrypted form
// while the inner payload (the JWS) still advertises itself as
// signed, per invariant 7.
func (m Message) SealSigned(p SealSignedParams) (string, error) {
	inner := m.Clone()

	jwsJSON, err := inner.Sign(p.SigAlg, p.SigKID, p.SigningKey)
	if err != nil {
		return "", err
	}

	outer := New().From(m.DidCommHeader.From).To(m.DidCommHeader.To).Typ(DidCommJws)

	outer, err = outer.SetBody(jwsJSON)
	if err != nil {
		return "", err
	}

	return outer.Seal(p.Seal)
}
