// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that the innermost oops code of err is code,
// the same code HTTP handlers map to a status.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext asserts that err carries key=value in its oops context.
// Context from every wrapping layer is merged.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	kv := oopsErr.Context()
	if assert.Contains(t, kv, key) {
		assert.Equal(t, value, kv[key])
	}
}
