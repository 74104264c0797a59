/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/errs"
)

type jwsSigEntry struct {
	Protected string          `json:"protected"`
	Header    json.RawMessage `json:"header,omitempty"`
	Signature string          `json:"signature"`
}

type jwsGeneral struct {
	Payload    string        `json:"payload"`
	Signatures []jwsSigEntry `json:"signatures"`
}

type jwsFlat struct {
	Payload   string          `json:"payload"`
	Protected string          `json:"protected"`
	Header    json.RawMessage `json:"header,omitempty"`
	Signature string          `json:"signature"`
}

type jwsProtectedHeader struct {
	Typ string `json:"typ"`
	Alg string `json:"alg"`
	Kid string `json:"kid,omitempty"`
}

// AsJws records the intended signing algorithm on the message's JOSE
// header ahead of Sign, per spec.md §4.E.
func (m Message) AsJws(alg crypto.SignatureAlgorithm) Message {
	m.JwmHeader.Alg = alg.WireName()
	return m
}

// Sign produces a JWS envelope for the message, per spec.md §4.F: the
// inner JWM JSON becomes the base64url `payload`; `protected` carries
// the signed type, the algorithm and the signing key id. The message's
// own typ is left untouched in the serialized payload — only the
// protected header advertises the signed envelope type, per invariant
// 7.
func (m Message) Sign(alg crypto.SignatureAlgorithm, kid string, signingKey []byte) (string, error) {
	payloadJSON, err := m.AsRawJson()
	if err != nil {
		return "", err
	}

	protected := jwsProtectedHeader{Typ: typSigned, Alg: alg.WireName(), Kid: kid}

	protectedJSON, err := json.Marshal(protected)
	if err != nil {
		return "", errs.Wrap(errs.KindSerializationError, err, "marshal jws protected header")
	}

	protectedB64 := encodeB64URL(protectedJSON)
	payloadB64 := encodeB64URL([]byte(payloadJSON))

	signer := alg.Signer()
	if signer == nil {
		return "", errs.Newf(errs.KindJwsParseError, "unsupported signature algorithm")
	}

	sig, err := signer(signingKey, []byte(protectedB64+"."+payloadB64))
	if err != nil {
		return "", errs.Wrap(errs.KindPlugCryptoFailure, err, "sign jws")
	}

	sigB64 := encodeB64URL(sig)

	var (
		out []byte
		mErr error
	)

	if m.flatJws {
		out, mErr = json.Marshal(jwsFlat{Payload: payloadB64, Protected: protectedB64, Signature: sigB64})
	} else {
		out, mErr = json.Marshal(jwsGeneral{
			Payload:    payloadB64,
			Signatures: []jwsSigEntry{{Protected: protectedB64, Signature: sigB64}},
		})
	}

	if mErr != nil {
		return "", errs.Wrap(errs.KindSerializationError, mErr, "marshal jws")
	}

	return string(out), nil
}

// Verify parses a flattened or general JWS, checks the signature
// against verifyingKey, and returns the decoded inner message, per
// spec.md §4.F. This is the dedicated entry point for the JWS-only
// case the receive pipeline also calls into.
func Verify(data []byte, verifyingKey []byte) (Message, error) {
	protectedB64, payloadB64, sigB64, err := splitJws(data)
	if err != nil {
		return Message{}, err
	}

	protectedJSON, err := decodeB64URL(protectedB64)
	if err != nil {
		return Message{}, err
	}

	var protected jwsProtectedHeader
	if err := json.Unmarshal(protectedJSON, &protected); err != nil {
		return Message{}, errs.Wrap(errs.KindJwsParseError, err, "decode jws protected header")
	}

	alg, err := crypto.SignatureAlgorithmFromName(protected.Alg)
	if err != nil {
		return Message{}, err
	}

	sig, err := decodeB64URL(sigB64)
	if err != nil {
		return Message{}, err
	}

	if verifyingKey == nil {
		return Message{}, errs.New(errs.KindJwsParseError, "no verifying key supplied")
	}

	verifier := alg.Verifier()

	ok, err := verifier(verifyingKey, []byte(protectedB64+"."+payloadB64), sig)
	if err != nil {
		return Message{}, errs.Wrap(errs.KindJwsParseError, err, "verify jws signature")
	}

	if !ok {
		return Message{}, errs.New(errs.KindJwsParseError, "jws signature verification failed")
	}

	payloadJSON, err := decodeB64URL(payloadB64)
	if err != nil {
		return Message{}, err
	}

	return messageFromJSON(payloadJSON)
}

// splitJws extracts the protected/payload/signature base64url strings
// from either wire form.
func splitJws(data []byte) (protected, payload, signature string, err error) {
	var probe map[string]json.RawMessage
	if uerr := json.Unmarshal(data, &probe); uerr != nil {
		return "", "", "", errs.Wrap(errs.KindJwsParseError, uerr, "parse jws")
	}

	if _, ok := probe["signatures"]; ok {
		var general jwsGeneral
		if uerr := json.Unmarshal(data, &general); uerr != nil {
			return "", "", "", errs.Wrap(errs.KindJwsParseError, uerr, "parse general jws")
		}

		if len(general.Signatures) == 0 {
			return "", "", "", errs.New(errs.KindJwsParseError, "general jws has no signatures")
		}

		return general.Signatures[0].Protected, general.Payload, general.Signatures[0].Signature, nil
	}

	var flat jwsFlat
	if uerr := json.Unmarshal(data, &flat); uerr != nil {
		return "", "", "", errs.Wrap(errs.KindJwsParseError, uerr, "parse flat jws")
	}

	if flat.Protected == "" || flat.Signature == "" {
		return "", "", "", errs.New(errs.KindJwsParseError, "malformed jws: missing protected or signature")
	}

	return flat.Protected, flat.Payload, flat.Signature, nil
}
