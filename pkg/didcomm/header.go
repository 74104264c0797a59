/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"github.com/trustbloc/didcomm-go/pkg/crypto"
	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// MessageType is the wire-level `typ` value of a DIDComm envelope, per
// spec.md §6.
type MessageType int

const (
	// DidCommRaw is the default, unsigned, unencrypted message type.
	DidCommRaw MessageType = iota
	// DidCommJws marks a signed-only envelope.
	DidCommJws
	// DidCommJwe marks an encrypted envelope.
	DidCommJwe
	// DidCommForward marks a mediator routing envelope.
	DidCommForward
)

const (
	typRaw     = "application/didcomm-plain+json"
	typSigned  = "application/didcomm-signed+json"
	typEncrypt = "application/didcomm-encrypted+json"
	typForward = "https://didcomm.org/routing/2.0/forward"
)

// String returns the wire value of the message type.
func (t MessageType) String() string {
	switch t {
	case DidCommJws:
		return typSigned
	case DidCommJwe:
		return typEncrypt
	case DidCommForward:
		return typForward
	case DidCommRaw:
		return typRaw
	default:
		return typRaw
	}
}

// ParseMessageType maps a wire `typ` string back to a MessageType.
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case typRaw, "":
		return DidCommRaw, nil
	case typSigned:
		return DidCommJws, nil
	case typEncrypt:
		return DidCommJwe, nil
	case typForward:
		return DidCommForward, nil
	default:
		return DidCommRaw, errs.Newf(errs.KindJwmHeaderParseError, "unrecognized typ %q", s)
	}
}

// JwmHeader is the JOSE-style protected/per-recipient header, per
// spec.md §3 and §6.
type JwmHeader struct {
	Typ  string     `json:"typ,omitempty"`
	Enc  string     `json:"enc,omitempty"`
	Alg  string     `json:"alg,omitempty"`
	Kid  string     `json:"kid,omitempty"`
	Skid string     `json:"skid,omitempty"`
	Epk  *crypto.JWK `json:"epk,omitempty"`
	Apu  string     `json:"apu,omitempty"`
	Apv  string     `json:"apv,omitempty"`
	Cty  string     `json:"cty,omitempty"`
}

// PriorClaims carries the `from_prior` rotation JWT claims, per
// spec.md §3. Only the claims this library inspects are typed;
// everything else round-trips through Other.
type PriorClaims struct {
	ID    string                 `mapstructure:"jti"`
	Iss   string                 `mapstructure:"iss"`
	Sub   string                 `mapstructure:"sub"`
	Aud   string                 `mapstructure:"aud"`
	Iat   int64                  `mapstructure:"iat"`
	Other map[string]interface{} `mapstructure:"-"`
}

var priorClaimsKnownFields = map[string]bool{
	"jti": true, "iss": true, "sub": true, "aud": true, "iat": true,
}

// MarshalJSON merges the typed claim fields with any extra claims
// captured in Other.
func (p PriorClaims) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}

	for k, v := range p.Other {
		out[k] = v
	}

	if p.ID != "" {
		out["jti"] = p.ID
	}

	if p.Iss != "" {
		out["iss"] = p.Iss
	}

	if p.Sub != "" {
		out["sub"] = p.Sub
	}

	if p.Aud != "" {
		out["aud"] = p.Aud
	}

	if p.Iat != 0 {
		out["iat"] = p.Iat
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerializationError, err, "marshal from_prior claims")
	}

	return data, nil
}

// UnmarshalJSON decodes known rotation claims into typed fields and
// preserves unknown claims in Other.
func (p *PriorClaims) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Wrap(errs.KindSerializationError, err, "unmarshal from_prior claims")
	}

	if err := mapstructure.Decode(raw, p); err != nil {
		return errs.Wrap(errs.KindJwmHeaderParseError, err, "decode from_prior claims")
	}

	p.Other = map[string]interface{}{}

	for k, v := range raw {
		if !priorClaimsKnownFields[k] {
			p.Other[k] = v
		}
	}

	return nil
}

// DidCommHeader is the DIDComm-specific envelope metadata, per
// spec.md §3 and §6. Unknown fields present at parse time are
// preserved across a read-then-reserialize round trip via raw;
// fields set programmatically through Other are merged back in on
// marshal.
type DidCommHeader struct {
	ID          string            `mapstructure:"id"`
	Type        string            `mapstructure:"type"`
	From        string            `mapstructure:"from"`
	To          []string          `mapstructure:"to"`
	Thid        string            `mapstructure:"thid"`
	Pthid       string            `mapstructure:"pthid"`
	CreatedTime int64             `mapstructure:"created_time"`
	ExpiresTime int64             `mapstructure:"expires_time"`
	FromPrior   *PriorClaims      `mapstructure:"-"`
	Attachments []Attachment      `mapstructure:"-"`
	Other       map[string]string `mapstructure:"-"`

	raw map[string]interface{}
}

var didCommHeaderKnownFields = map[string]bool{
	"id": true, "type": true, "from": true, "to": true,
	"thid": true, "pthid": true, "created_time": true, "expires_time": true,
	"from_prior": true, "attachments": true,
}

// MarshalJSON serializes the header, merging in Other and any
// unrecognized fields captured at parse time.
func (h DidCommHeader) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}

	for k, v := range h.raw {
		out[k] = v
	}

	for k, v := range h.Other {
		out[k] = v
	}

	out["id"] = h.ID

	if h.Type != "" {
		out["type"] = h.Type
	}

	if h.From != "" {
		out["from"] = h.From
	}

	if len(h.To) > 0 {
		out["to"] = h.To
	}

	if h.Thid != "" {
		out["thid"] = h.Thid
	}

	if h.Pthid != "" {
		out["pthid"] = h.Pthid
	}

	if h.CreatedTime != 0 {
		out["created_time"] = h.CreatedTime
	}

	if h.ExpiresTime != 0 {
		out["expires_time"] = h.ExpiresTime
	}

	if h.FromPrior != nil {
		out["from_prior"] = h.FromPrior
	}

	if len(h.Attachments) > 0 {
		out["attachments"] = h.Attachments
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerializationError, err, "marshal didcomm header")
	}

	return data, nil
}

// UnmarshalJSON decodes known header fields via mapstructure and
// captures everything else: string-valued extras go into Other,
// everything else (to preserve type fidelity on reserialize) into an
// internal raw map.
func (h *DidCommHeader) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Wrap(errs.KindSerializationError, err, "unmarshal didcomm header")
	}

	if err := mapstructure.Decode(raw, h); err != nil {
		return errs.Wrap(errs.KindJwmHeaderParseError, err, "decode didcomm header")
	}

	if fp, ok := raw["from_prior"]; ok {
		fpData, err := json.Marshal(fp)
		if err != nil {
			return errs.Wrap(errs.KindSerializationError, err, "remarshal from_prior")
		}

		var claims PriorClaims
		if err := json.Unmarshal(fpData, &claims); err != nil {
			return err
		}

		h.FromPrior = &claims
	}

	if atts, ok := raw["attachments"]; ok {
		attsData, err := json.Marshal(atts)
		if err != nil {
			return errs.Wrap(errs.KindSerializationError, err, "remarshal attachments")
		}

		if err := json.Unmarshal(attsData, &h.Attachments); err != nil {
			return errs.Wrap(errs.KindJwmHeaderParseError, err, "decode attachments")
		}
	}

	h.Other = map[string]string{}
	h.raw = map[string]interface{}{}

	for k, v := range raw {
		if didCommHeaderKnownFields[k] {
			continue
		}

		if s, ok := v.(string); ok {
			h.Other[k] = s
			continue
		}

		h.raw[k] = v
	}

	return nil
}
