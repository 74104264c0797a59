/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"encoding/asn1"
	"math/big"

	"github.com/trustbloc/didcomm-go/pkg/errs"
)

// ecdsaSignature is the ASN.1 structure btcec's DER-encoded signatures
// use. btcec/v2/ecdsa only exposes DER (de)serialization, but
// spec.md §4.C mandates a fixed-width raw r‖s encoding on the wire, so
// this module translates between the two at the signature-primitive
// boundary only.
type ecdsaSignature struct {
	R, S *big.Int
}

func derToRS(der []byte) (*big.Int, *big.Int, error) {
	var sig ecdsaSignature
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return nil, nil, errs.Wrap(errs.KindGeneric, err, "decode DER ECDSA signature")
	}

	return sig.R, sig.S, nil
}

func rsToDER(r, s *big.Int) ([]byte, error) {
	der, err := asn1.Marshal(ecdsaSignature{R: r, S: s})
	if err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "encode DER ECDSA signature")
	}

	return der, nil
}
