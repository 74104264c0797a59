/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"encoding/base64"
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// rawURLBytes round-trips a byte slice through unpadded base64url,
// the encoding every binary JOSE field on the wire uses (spec.md §6:
// "All binary fields are base64url without padding"). encoding/json's
// default []byte handling uses padded standard base64, which is not
// wire-compatible here.
type rawURLBytes []byte

func (b rawURLBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.RawURLEncoding.EncodeToString(b))
}

func (b *rawURLBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errs.Wrap(errs.KindSerializationError, err, "unmarshal base64url field")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return errs.Wrap(errs.KindSerializationError, err, "decode base64url field")
	}

	*b = decoded

	return nil
}

func encodeB64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeB64URL(s string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerializationError, err, "decode base64url string")
	}

	return decoded, nil
}
