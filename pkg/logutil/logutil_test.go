/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/logutil"
)

func TestInitIsIdempotent(t *testing.T) {
	logutil.Init()
	first := logutil.Log()
	logutil.Init()
	second := logutil.Log()

	require.Same(t, first, second)
}
