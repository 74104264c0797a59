/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcomm builds, serializes, parses and unwraps DIDComm v2
// envelopes: a JWM payload optionally signed (JWS), optionally
// encrypted (JWE) with per-recipient ECDH-1PU key wrapping, and
// optionally nested inside a mediator forward envelope.
package didcomm
