// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package seed_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra/inventra/internal/seed"
	"github.com/inventra/inventra/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	data, err := seed.GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, seed.SchemaID, doc["$id"])
	assert.Contains(t, doc, "$schema")

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"branches", "roles", "accounts"} {
		assert.Contains(t, props, key)
	}

	schema := string(data)
	for _, field := range []string{`"first_name"`, `"last_name"`, `"supervisor"`, `"password"`} {
		assert.Contains(t, schema, field)
	}
}

func TestValidateSchema_Valid(t *testing.T) {
	require.NoError(t, seed.ValidateSchema(readTestdata(t, "valid.yaml")))
}

func TestValidateSchema_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: ""},
		{name: "not yaml", yaml: "accounts: [\n"},
		{name: "unknown top-level key", yaml: "users: []\n"},
		{name: "accounts not a list", yaml: "accounts: yes\n"},
		{name: "missing email", yaml: "accounts:\n  - {password: x, first_name: A, last_name: B}\n"},
		{name: "missing last name", yaml: "accounts:\n  - {email: a@example.com, password: x, first_name: A}\n"},
		{name: "empty branch name", yaml: "branches:\n  - name: \"\"\n"},
		{name: "supervisor not a bool", yaml: "roles:\n  - {name: Jefe, supervisor: maybe}\n"},
		{name: "unknown account key", yaml: "accounts:\n  - {email: a@example.com, password: x, first_name: A, last_name: B, admin: true}\n"},
		{name: "email too long", yaml: "accounts:\n  - {email: " + strings.Repeat("a", 95) + "@x.com, password: x, first_name: A, last_name: B}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := seed.ValidateSchema([]byte(tt.yaml))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, seed.CodeInvalidManifest)
		})
	}
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, seed.FormatSchemaError(nil))

	err := seed.ValidateSchema([]byte("users: []\n"))
	require.Error(t, err)
	msg := seed.FormatSchemaError(err)
	assert.NotEmpty(t, msg)
	assert.NotContains(t, msg, "validate schema")
}
