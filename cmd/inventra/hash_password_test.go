// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/pkg/errutil"
)

func TestHashPassword(t *testing.T) {
	cmd := NewHashPasswordCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader("password123\n"))

	require.NoError(t, runHashPassword(cmd, noEnv))

	hash := strings.TrimSpace(out.String())
	hasher, err := auth.NewScryptHasher(auth.DefaultHasherParams())
	require.NoError(t, err)
	assert.True(t, hasher.Verify("password123", hash))
	assert.False(t, hasher.Verify("password124", hash))
}

func TestHashPassword_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "\n"} {
		cmd := NewHashPasswordCmd()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetIn(strings.NewReader(input))

		err := runHashPassword(cmd, noEnv)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "PASSWORD_REQUIRED")
	}
}
