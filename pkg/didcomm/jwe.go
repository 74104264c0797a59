/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"strings"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/crypto/ecdh1pu"
	"github.com/trustbloc/didcomm-go/pkg/errs"
	"github.com/trustbloc/didcomm-go/pkg/resolver"
)

const aeadTagSize = 16

type jweRecipientWire struct {
	Header       RecipientHeader `json:"header"`
	EncryptedKey string          `json:"encrypted_key"`
}

type jweGeneral struct {
	Protected  string             `json:"protected"`
	Recipients []jweRecipientWire `json:"recipients"`
	IV         string             `json:"iv"`
	Ciphertext string             `json:"ciphertext"`
	Tag        string             `json:"tag,omitempty"`
}

type jweFlat struct {
	Protected    string          `json:"protected"`
	Header       RecipientHeader `json:"header"`
	EncryptedKey string          `json:"encrypted_key"`
	IV           string          `json:"iv"`
	Ciphertext   string          `json:"ciphertext"`
	Tag          string          `json:"tag,omitempty"`
}

type jweProtectedHeader struct {
	Typ string `json:"typ"`
	Enc string `json:"enc"`
}

// jweCommon is the normalized shape both wire forms parse into.
type jweCommon struct {
	Protected  string
	Recipients []jweRecipientWire
	IV         string
	Ciphertext string
	Tag        string
}

// AsJwe records the intended encryption parameters on the message's
// JOSE header ahead of Seal, per spec.md §4.E: when an explicit
// recipient public key is supplied, kid becomes its base64url
// encoding; otherwise, given a resolver and a `from`, it resolves the
// sender's own DID document and picks the first key id for the curve
// the content algorithm requires.
func (m Message) AsJwe(alg crypto.ContentAlgorithm, recipientPub []byte, res resolver.Resolver) Message {
	m.JwmHeader.Enc = alg.EncName()
	m.JwmHeader.Alg = alg.KeyWrapAlg()

	switch {
	case recipientPub != nil:
		m.JwmHeader.Kid = encodeB64URL(recipientPub)
	case res != nil && m.DidCommHeader.From != "":
		if doc, ok := res.Resolve(m.DidCommHeader.From); ok {
			if kid, ok := doc.FindPublicKeyIDForCurve(alg.Curve()); ok {
				m.JwmHeader.Kid = kid
			}
		}
	}

	return m
}

// SealParams are the inputs to Seal.
type SealParams struct {
	ContentAlg          crypto.ContentAlgorithm
	SenderPrivateKey    []byte
	SenderKID           string
	RecipientKIDs       []string // optional, used with RecipientPublicKeys; falls back to the `to` DID itself per recipient; ignored when keys come from Resolver, which supplies the kid
	RecipientPublicKeys [][]byte // optional explicit keys; falls back to Resolver
	Resolver            resolver.Resolver
}

// Seal is the JWE codec's terminal sealing operation, per spec.md
// §4.G: it validates the recipient shape, draws a fresh CEK from a
// CSPRNG (never a fixed seed, resolving Open Question 2), wraps it
// per recipient via ECDH-1PU, then encrypts the JWM (with recipients
// set) under the content algorithm.
func (m Message) Seal(p SealParams) (string, error) {
	if len(p.SenderPrivateKey) != 32 {
		return "", errs.New(errs.KindInvalidKeySize, "seal: sender private key must be 32 bytes")
	}

	to := m.DidCommHeader.To
	if len(to) == 0 {
		return "", errs.New(errs.KindNoJweRecipient, "seal: message has no recipients")
	}

	if m.flatJwe && len(to) != 1 {
		return "", errs.New(errs.KindNoJweRecipient, "seal: flattened jwe requires exactly one recipient")
	}

	if p.RecipientPublicKeys != nil && len(p.RecipientPublicKeys) != len(to) {
		return "", errs.New(errs.KindInvalidKeySize, "seal: explicit recipient key count does not match `to`")
	}

	cek := make([]byte, 32)
	if _, err := rand.Read(cek); err != nil {
		return "", errs.Wrap(errs.KindPlugCryptoFailure, err, "seal: generate CEK")
	}

	defer zero(cek)

	keyWrapAlg := p.ContentAlg.KeyWrapAlg()
	curve := p.ContentAlg.Curve()

	recipients := make([]Recipient, 0, len(to))
	wireRecipients := make([]jweRecipientWire, 0, len(to))

	for i, did := range to {
		recipientKID := did
		if i < len(p.RecipientKIDs) && p.RecipientKIDs[i] != "" {
			recipientKID = p.RecipientKIDs[i]
		}

		recipientPub := ([]byte)(nil)
		if p.RecipientPublicKeys != nil {
			recipientPub = p.RecipientPublicKeys[i]
		} else {
			pub, kid, err := resolveRecipientKey(p.Resolver, did, curve)
			if err != nil {
				return "", err
			}

			recipientPub, recipientKID = pub, kid
		}

		wrapped, err := ecdh1pu.WrapKey(ecdh1pu.WrapParams{
			KeyWrapAlg:         keyWrapAlg,
			CEK:                cek,
			SenderKID:          p.SenderKID,
			SenderPrivateKey:   p.SenderPrivateKey,
			RecipientKID:       recipientKID,
			RecipientPublicKey: recipientPub,
		})
		if err != nil {
			return "", err
		}

		header := RecipientHeader{
			Alg:  wrapped.Header.Alg,
			Enc:  p.ContentAlg.EncName(),
			Kid:  wrapped.Header.Kid,
			Skid: p.SenderKID,
			Epk:  &wrapped.Header.Epk,
			Apu:  encodeB64URL(wrapped.Header.Apu),
			Apv:  encodeB64URL(wrapped.Header.Apv),
		}

		recipients = append(recipients, Recipient{Header: header, EncryptedKey: wrapped.EncryptedKey})
		wireRecipients = append(wireRecipients, jweRecipientWire{
			Header:       header,
			EncryptedKey: encodeB64URL(wrapped.EncryptedKey),
		})
	}

	sealed := m
	sealed.Recipients = recipients

	plaintext, err := sealed.asRawJSONWithRecipients()
	if err != nil {
		return "", err
	}

	protected := jweProtectedHeader{Typ: typEncrypt, Enc: p.ContentAlg.EncName()}

	protectedJSON, err := json.Marshal(protected)
	if err != nil {
		return "", errs.Wrap(errs.KindSerializationError, err, "marshal jwe protected header")
	}

	protectedB64 := encodeB64URL(protectedJSON)
	aad := []byte(protectedB64)

	nonce := make([]byte, p.ContentAlg.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errs.Wrap(errs.KindPlugCryptoFailure, err, "seal: generate nonce")
	}

	combined, err := p.ContentAlg.Encryptor()(nonce, cek, plaintext, aad)
	if err != nil {
		return "", err
	}

	ciphertext, tag := splitCiphertextTag(p.ContentAlg, combined)

	var (
		out  []byte
		mErr error
	)

	if m.flatJwe {
		out, mErr = json.Marshal(jweFlat{
			Protected:    protectedB64,
			Header:       recipients[0].Header,
			EncryptedKey: encodeB64URL(recipients[0].EncryptedKey),
			IV:           encodeB64URL(nonce),
			Ciphertext:   encodeB64URL(ciphertext),
			Tag:          encodeB64URLOrEmpty(tag),
		})
	} else {
		out, mErr = json.Marshal(jweGeneral{
			Protected:  protectedB64,
			Recipients: wireRecipients,
			IV:         encodeB64URL(nonce),
			Ciphertext: encodeB64URL(ciphertext),
			Tag:        encodeB64URLOrEmpty(tag),
		})
	}

	if mErr != nil {
		return "", errs.Wrap(errs.KindSerializationError, mErr, "marshal jwe")
	}

	return string(out), nil
}

// asRawJSONWithRecipients is AsRawJson plus the `recipients` array,
// used only by Seal to produce the plaintext that gets encrypted
// (spec.md §4.G step 4: "serialize the JWM to bytes (with recipients
// set)").
func (m Message) asRawJSONWithRecipients() ([]byte, error) {
	doc, err := m.toWireDoc()
	if err != nil {
		return nil, err
	}

	if len(m.Recipients) > 0 {
		recipientsJSON, err := json.Marshal(m.Recipients)
		if err != nil {
			return nil, errs.Wrap(errs.KindSerializationError, err, "marshal recipients")
		}

		doc["recipients"] = recipientsJSON
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerializationError, err, "marshal sealed message")
	}

	return data, nil
}

// OpenParams are the inputs to Open.
type OpenParams struct {
	RecipientPrivateKey []byte
	RecipientKID        string // optional; when empty every recipient entry is attempted
	SenderPublicKey     []byte // optional explicit sender key; falls back to Resolver via skid
	Resolver            resolver.Resolver
}

// Open is the JWE codec's terminal opening operation, per spec.md
// §4.G: it resolves the sender public key when not supplied, then
// tries each matching recipient entry in turn, returning the first
// one whose unwrap and content decryption both succeed.
func Open(data []byte, p OpenParams) (Message, error) {
	common, err := parseJwe(data)
	if err != nil {
		return Message{}, err
	}

	iv, err := decodeB64URL(common.IV)
	if err != nil {
		return Message{}, err
	}

	ciphertext, err := decodeB64URL(common.Ciphertext)
	if err != nil {
		return Message{}, err
	}

	var tag []byte

	if common.Tag != "" {
		tag, err = decodeB64URL(common.Tag)
		if err != nil {
			return Message{}, err
		}
	}

	aad := []byte(common.Protected)

	protectedJSON, err := decodeB64URL(common.Protected)
	if err != nil {
		return Message{}, err
	}

	var protected jweProtectedHeader
	if err := json.Unmarshal(protectedJSON, &protected); err != nil {
		return Message{}, errs.Wrap(errs.KindJweParseError, err, "decode jwe protected header")
	}

	contentAlg, err := crypto.ContentAlgorithmFromEncName(protected.Enc)
	if err != nil {
		return Message{}, err
	}

	var lastErr error = errs.New(errs.KindJweParseError, "no recipient entry matched")

	for _, rcpt := range common.Recipients {
		if p.RecipientKID != "" && rcpt.Header.Kid != p.RecipientKID {
			continue
		}

		if rcpt.Header.Epk == nil {
			continue
		}

		senderPub, err := resolveSenderKey(p, rcpt.Header.Skid)
		if err != nil {
			lastErr = err
			continue
		}

		apu, err := decodeB64URL(rcpt.Header.Apu)
		if err != nil {
			lastErr = err
			continue
		}

		apv, err := decodeB64URL(rcpt.Header.Apv)
		if err != nil {
			lastErr = err
			continue
		}

		encryptedKey, err := decodeB64URL(rcpt.EncryptedKey)
		if err != nil {
			lastErr = err
			continue
		}

		cek, err := ecdh1pu.UnwrapKey(ecdh1pu.UnwrapParams{
			KeyWrapAlg:          rcpt.Header.Alg,
			EncryptedKey:        encryptedKey,
			Epk:                 *rcpt.Header.Epk,
			Apu:                 apu,
			Apv:                 apv,
			RecipientPrivateKey: p.RecipientPrivateKey,
			SenderPublicKey:     senderPub,
		})
		if err != nil {
			lastErr = err
			continue
		}

		combined := append(append([]byte{}, ciphertext...), tag...)

		plaintext, err := contentAlg.Decryptor()(iv, cek, combined, aad)

		zero(cek)

		if err != nil {
			lastErr = err
			continue
		}

		return messageFromJSON(plaintext)
	}

	return Message{}, errs.Wrap(errs.KindPlugCryptoFailure, lastErr, "open: no recipient entry could be decrypted")
}

// GetIV extracts the 24-byte nonce from either a JSON object carrying
// a top-level `iv`, or a compact representation whose part before the
// first `.` base64url-decodes to a JSON object carrying `iv`, per
// spec.md §4.G. Any decoded length other than 24 bytes is a size
// error (testable property 6).
func GetIV(data []byte) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		if ivRaw, ok := obj["iv"]; ok {
			var ivStr string
			if err := json.Unmarshal(ivRaw, &ivStr); err != nil {
				return nil, errs.Wrap(errs.KindJweParseError, err, "decode iv field")
			}

			return decodeIV(ivStr)
		}
	}

	idx := bytes.IndexByte(data, '.')
	if idx < 0 {
		return nil, errs.New(errs.KindJweParseError, "get_iv: not a JSON object or compact form")
	}

	headerJSON, err := decodeB64URL(string(data[:idx]))
	if err != nil {
		return nil, err
	}

	var hdr map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return nil, errs.Wrap(errs.KindJweParseError, err, "get_iv: decode compact header")
	}

	ivRaw, ok := hdr["iv"]
	if !ok {
		return nil, errs.New(errs.KindJweParseError, "get_iv: compact header has no iv")
	}

	var ivStr string
	if err := json.Unmarshal(ivRaw, &ivStr); err != nil {
		return nil, errs.Wrap(errs.KindJweParseError, err, "get_iv: decode iv field")
	}

	return decodeIV(ivStr)
}

func decodeIV(s string) ([]byte, error) {
	b, err := decodeB64URL(s)
	if err != nil {
		return nil, err
	}

	if len(b) != 24 {
		return nil, errs.Newf(errs.KindInvalidKeySize, "iv must decode to 24 bytes, got %d", len(b))
	}

	return b, nil
}

func parseJwe(data []byte) (jweCommon, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return jweCommon{}, errs.Wrap(errs.KindJweParseError, err, "parse jwe")
	}

	if _, ok := probe["recipients"]; ok {
		var general jweGeneral
		if err := json.Unmarshal(data, &general); err != nil {
			return jweCommon{}, errs.Wrap(errs.KindJweParseError, err, "parse general jwe")
		}

		return jweCommon{
			Protected:  general.Protected,
			Recipients: general.Recipients,
			IV:         general.IV,
			Ciphertext: general.Ciphertext,
			Tag:        general.Tag,
		}, nil
	}

	var flat jweFlat
	if err := json.Unmarshal(data, &flat); err != nil {
		return jweCommon{}, errs.Wrap(errs.KindJweParseError, err, "parse flat jwe")
	}

	if flat.Protected == "" {
		return jweCommon{}, errs.New(errs.KindJweParseError, "malformed jwe: missing protected header")
	}

	return jweCommon{
		Protected:  flat.Protected,
		Recipients: []jweRecipientWire{{Header: flat.Header, EncryptedKey: flat.EncryptedKey}},
		IV:         flat.IV,
		Ciphertext: flat.Ciphertext,
		Tag:        flat.Tag,
	}, nil
}

func resolveRecipientKey(r resolver.Resolver, did, curve string) ([]byte, string, error) {
	if r == nil {
		return nil, "", errs.New(errs.KindJweParseError, "seal: no recipient public key supplied and no resolver configured")
	}

	doc, ok := r.Resolve(did)
	if !ok {
		return nil, "", errs.Newf(errs.KindJweParseError, "seal: resolver has no document for %s", did)
	}

	kid, ok := doc.FindPublicKeyIDForCurve(curve)
	if !ok {
		return nil, "", errs.Newf(errs.KindJweParseError, "seal: %s has no key for curve %s", did, curve)
	}

	pub, ok := doc.PublicKeyBytes(kid)
	if !ok {
		return nil, "", errs.Newf(errs.KindJweParseError, "seal: no key bytes for %s", kid)
	}

	return pub, kid, nil
}

func resolveSenderKey(p OpenParams, skid string) ([]byte, error) {
	if p.SenderPublicKey != nil {
		return p.SenderPublicKey, nil
	}

	if p.Resolver == nil || skid == "" {
		return nil, errs.New(errs.KindJweParseError, "open: no sender public key supplied and none resolvable")
	}

	did := skid
	if idx := strings.IndexByte(skid, '#'); idx >= 0 {
		did = skid[:idx]
	}

	doc, ok := p.Resolver.Resolve(did)
	if !ok {
		return nil, errs.Newf(errs.KindJweParseError, "open: resolver has no document for %s", did)
	}

	pub, ok := doc.PublicKeyBytes(skid)
	if !ok {
		return nil, errs.Newf(errs.KindJweParseError, "open: no key bytes for %s", skid)
	}

	return pub, nil
}

func splitCiphertextTag(alg crypto.ContentAlgorithm, combined []byte) (ciphertext, tag []byte) {
	if alg == crypto.A256CBC || len(combined) < aeadTagSize {
		return combined, nil
	}

	split := len(combined) - aeadTagSize

	return combined[:split], combined[split:]
}

func encodeB64URLOrEmpty(b []byte) string {
	if b == nil {
		return ""
	}

	return encodeB64URL(b)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
