/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errs defines the error taxonomy shared by every package in
// this module. Every public operation in the crypto, jwe/jws codecs
// and message builder returns one of the Kind values below wrapped in
// an *Error, never a bare error from a primitive library.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the category of failure, independent of the
// underlying cause. Callers should switch on Kind, not on error
// message text.
type Kind int

const (
	// KindInvalidKeySize is returned for any key or nonce length mismatch.
	KindInvalidKeySize Kind = iota
	// KindNoJweRecipient is returned when sealing a message with an empty `to`.
	KindNoJweRecipient
	// KindNoRotationData is returned by GetPrior on a non-rotation message.
	KindNoRotationData
	// KindJweParseError is returned for an unrecognized `alg` or a malformed JWE.
	KindJweParseError
	// KindJwsParseError is returned for a malformed JWS or a verification failure.
	KindJwsParseError
	// KindJwmHeaderParseError is returned for an unknown or malformed header field.
	KindJwmHeaderParseError
	// KindPlugCryptoFailure is returned when an AEAD primitive itself fails, e.g. a short nonce.
	KindPlugCryptoFailure
	// KindSerializationError is returned on JSON encode/decode failure.
	KindSerializationError
	// KindGeneric wraps a primitive-library error that does not fit another Kind.
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindInvalidKeySize:
		return "InvalidKeySize"
	case KindNoJweRecipient:
		return "NoJweRecipient"
	case KindNoRotationData:
		return "NoRotationData"
	case KindJweParseError:
		return "JweParseError"
	case KindJwsParseError:
		return "JwsParseError"
	case KindJwmHeaderParseError:
		return "JwmHeaderParseError"
	case KindPlugCryptoFailure:
		return "PlugCryptoFailure"
	case KindSerializationError:
		return "SerializationError"
	case KindGeneric:
		return "Generic"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned from every public
// operation in this module. It carries a Kind for programmatic
// handling and, when wrapping a lower-level failure, a stack trace
// courtesy of github.com/pkg/errors.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// New creates an Error of the given Kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.New(message)}
}

// Newf creates an Error of the given Kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Message: msg, cause: errors.New(msg)}
}

// Wrap wraps an existing error with a Kind, preserving its stack/cause
// for %+v formatting.
func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Message: message, cause: errors.Wrap(err, message)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause so that errors.Is/As work against
// sentinel errors produced by lower layers.
func (e *Error) Unwrap() error {
	return e.cause
}

// Format implements fmt.Formatter so that %+v on an *Error prints the
// stack trace captured by pkg/errors at wrap time.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s: %+v", e.Kind, e.cause)
			return
		}

		fallthrough
	default:
		_, _ = fmt.Fprint(s, e.Error())
	}
}

// Is reports whether target is an *Error with the same Kind, so that
// `errors.Is(err, errs.New(errs.KindNoRotationData, ""))`-style checks
// work without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Kind == t.Kind
}
