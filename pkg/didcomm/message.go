/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/errs"
	"github.com/trustbloc/didcomm-go/pkg/logutil"
)

// RecipientHeader is the per-recipient JOSE header produced by
// ECDH-1PU key wrapping, per spec.md §4.D.
type RecipientHeader struct {
	Alg  string      `json:"alg,omitempty"`
	Enc  string      `json:"enc,omitempty"`
	Kid  string      `json:"kid,omitempty"`
	Skid string      `json:"skid,omitempty"`
	Epk  *crypto.JWK `json:"epk,omitempty"`
	Apu  string      `json:"apu,omitempty"`
	Apv  string      `json:"apv,omitempty"`
}

// Recipient is one entry of a JWE's `recipients` array, per spec.md §3.
type Recipient struct {
	Header       RecipientHeader `json:"header"`
	EncryptedKey rawURLBytes     `json:"encrypted_key"`
}

// Message is the in-memory JWM: JOSE header, DIDComm header, body and
// (once sealed) per-recipient key-wrap entries, per spec.md §3. It is
// a builder: each chained method returns an updated value rather than
// mutating its receiver, and the contract (mirroring the consuming
// builder in the original source) is that a caller does not reuse a
// Message after passing it to a terminal operation such as Seal,
// SealSigned, Sign or RoutedBy.
type Message struct {
	JwmHeader     JwmHeader
	DidCommHeader DidCommHeader
	Body          json.RawMessage
	Recipients    []Recipient
	flatJwe       bool
	flatJws       bool
}

// New builds a Message with sensible defaults: a fresh id, an empty
// object body, and DidCommRaw as its type. It also performs this
// module's one piece of process-global state: idempotent logger
// initialization, mirroring the original source's
// env_logger::try_init() call on every Message::new().
func New() Message {
	logutil.Init()

	return Message{
		JwmHeader:     JwmHeader{Typ: DidCommRaw.String()},
		DidCommHeader: DidCommHeader{ID: uuid.NewString()},
		Body:          json.RawMessage("{}"),
	}
}

// From sets the sender DID.
func (m Message) From(did string) Message {
	m.DidCommHeader.From = did
	return m
}

// To sets the recipient DID list, filtering out empty strings per
// spec.md §3.
func (m Message) To(dids []string) Message {
	filtered := make([]string, 0, len(dids))

	for _, d := range dids {
		if d != "" {
			filtered = append(filtered, d)
		}
	}

	m.DidCommHeader.To = filtered

	return m
}

// SetBody replaces the body with the given JSON string, failing with
// SerializationError on invalid JSON.
func (m Message) SetBody(jsonStr string) (Message, error) {
	if !json.Valid([]byte(jsonStr)) {
		return Message{}, errs.New(errs.KindSerializationError, "body is not valid JSON")
	}

	m.Body = json.RawMessage(jsonStr)

	return m, nil
}

// MType sets the application message type URI (DidCommHeader.Type).
func (m Message) MType(uri string) Message {
	m.DidCommHeader.Type = uri
	return m
}

// Typ sets the envelope-level message type (JwmHeader.Typ).
func (m Message) Typ(t MessageType) Message {
	m.JwmHeader.Typ = t.String()
	return m
}

// Kid sets the JOSE header's recipient key id.
func (m Message) Kid(kid string) Message {
	m.JwmHeader.Kid = kid
	return m
}

// Thid sets the thread id.
func (m Message) Thid(thid string) Message {
	m.DidCommHeader.Thid = thid
	return m
}

// Pthid sets the parent-thread id.
func (m Message) Pthid(pthid string) Message {
	m.DidCommHeader.Pthid = pthid
	return m
}

// ReplyTo copies thid/pthid from other, per spec.md §4.E.
func (m Message) ReplyTo(other Message) Message {
	m.DidCommHeader.Thid = other.DidCommHeader.Thid
	m.DidCommHeader.Pthid = other.DidCommHeader.Pthid

	return m
}

// WithParent sets pthid to other's thid, falling back to other's id
// when other has no thid, per spec.md §4.E.
func (m Message) WithParent(other Message) Message {
	if other.DidCommHeader.Thid != "" {
		m.DidCommHeader.Pthid = other.DidCommHeader.Thid
	} else {
		m.DidCommHeader.Pthid = other.DidCommHeader.ID
	}

	return m
}

// Timed sets created_time to now and expires_time to the given value,
// per spec.md §4.E.
func (m Message) Timed(expires *int64) Message {
	m.DidCommHeader.CreatedTime = time.Now().Unix()

	if expires != nil {
		m.DidCommHeader.ExpiresTime = *expires
	}

	return m
}

// AddHeaderField sets an application-specific header field, ignoring
// an empty key, per spec.md §4.E.
func (m Message) AddHeaderField(k, v string) Message {
	if k == "" {
		return m
	}

	other := make(map[string]string, len(m.DidCommHeader.Other)+1)
	for ok, ov := range m.DidCommHeader.Other {
		other[ok] = ov
	}

	other[k] = v
	m.DidCommHeader.Other = other

	return m
}

// AsFlatJws marks the message to serialize as a flattened JWS on Sign.
func (m Message) AsFlatJws() Message {
	m.flatJws = true
	return m
}

// AsFlatJwe marks the message to serialize as a flattened JWE on Seal.
func (m Message) AsFlatJwe() Message {
	m.flatJwe = true
	return m
}

// AsRawJson consumes the message and returns its canonical JSON
// representation: an empty body serializes as `{}`, and empty
// attachments are omitted, per spec.md §4.E.
func (m Message) AsRawJson() (string, error) { //nolint:revive,stylecheck // wire-name kept verbatim from spec.md
	doc, err := m.toWireDoc()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", errs.Wrap(errs.KindSerializationError, err, "marshal raw json")
	}

	return string(data), nil
}

// toWireDoc flattens JwmHeader and DidCommHeader side by side with
// body into a single JSON object, matching how the original source
// serializes an unsealed, unsigned message. It merges through
// map[string]json.RawMessage rather than anonymous struct embedding
// because DidCommHeader's MarshalJSON (needed for the Other/raw
// round trip) would otherwise be bypassed by encoding/json's
// anonymous-field flattening.
func (m Message) toWireDoc() (map[string]json.RawMessage, error) {
	body := m.Body
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}

	out := map[string]json.RawMessage{"body": body}

	if err := mergeJSONObject(out, m.JwmHeader); err != nil {
		return nil, err
	}

	if err := mergeJSONObject(out, m.DidCommHeader); err != nil {
		return nil, err
	}

	return out, nil
}

func mergeJSONObject(into map[string]json.RawMessage, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(errs.KindSerializationError, err, "marshal header")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errs.Wrap(errs.KindSerializationError, err, "unmarshal header fields")
	}

	for k, v := range fields {
		into[k] = v
	}

	return nil
}

var jwmHeaderFieldNames = map[string]bool{
	"typ": true, "enc": true, "alg": true, "kid": true, "skid": true,
	"epk": true, "apu": true, "apv": true, "cty": true,
}

// messageFromJSON reconstructs a Message from the flattened plain-JSON
// shape toWireDoc produces. JwmHeader fields are split out by name
// before DidCommHeader's UnmarshalJSON runs, so that JOSE fields do
// not leak into DidCommHeader.Other as unrecognized application
// headers.
func messageFromJSON(data []byte) (Message, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return Message{}, errs.Wrap(errs.KindSerializationError, err, "unmarshal message")
	}

	body, ok := all["body"]
	if !ok || len(body) == 0 {
		body = json.RawMessage("{}")
	}

	delete(all, "body")

	var recipients []Recipient

	if raw, ok := all["recipients"]; ok {
		if err := json.Unmarshal(raw, &recipients); err != nil {
			return Message{}, errs.Wrap(errs.KindSerializationError, err, "unmarshal recipients")
		}

		delete(all, "recipients")
	}

	jwmFields := map[string]json.RawMessage{}
	didFields := map[string]json.RawMessage{}

	for k, v := range all {
		if jwmHeaderFieldNames[k] {
			jwmFields[k] = v
		} else {
			didFields[k] = v
		}
	}

	var jwm JwmHeader

	jwmData, err := json.Marshal(jwmFields)
	if err != nil {
		return Message{}, errs.Wrap(errs.KindSerializationError, err, "remarshal jwm header")
	}

	if err := json.Unmarshal(jwmData, &jwm); err != nil {
		return Message{}, errs.Wrap(errs.KindJwmHeaderParseError, err, "decode jwm header")
	}

	var did DidCommHeader

	didData, err := json.Marshal(didFields)
	if err != nil {
		return Message{}, errs.Wrap(errs.KindSerializationError, err, "remarshal didcomm header")
	}

	if err := json.Unmarshal(didData, &did); err != nil {
		return Message{}, errs.Wrap(errs.KindJwmHeaderParseError, err, "decode didcomm header")
	}

	return Message{JwmHeader: jwm, DidCommHeader: did, Body: body, Recipients: recipients}, nil
}

// GetPrior returns the from_prior rotation claims, or
// NoRotationData if the message carries none, per spec.md §4.E.
func (m Message) GetPrior() (*PriorClaims, error) {
	if m.DidCommHeader.FromPrior == nil {
		return nil, errs.New(errs.KindNoRotationData, "message carries no from_prior claims")
	}

	return m.DidCommHeader.FromPrior, nil
}

// IsRotation reports whether the message carries rotation claims.
func (m Message) IsRotation() bool {
	return m.DidCommHeader.FromPrior != nil
}

// Clone deep-copies the message, used internally by SealSigned to
// seal a signed copy while leaving the original caller's message
// untouched, per spec.md §4.J step 1.
func (m Message) Clone() Message {
	var out Message
	if err := copier.Copy(&out, &m); err != nil {
		// copier only fails on type mismatches between source and
		// destination, which cannot happen here: both sides are the
		// same concrete type.
		panic(err)
	}

	out.flatJwe = m.flatJwe
	out.flatJws = m.flatJws

	return out
}
