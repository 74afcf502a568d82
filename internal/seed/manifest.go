// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package seed provisions branches, roles and accounts from YAML manifests.
package seed

import (
	"bytes"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/inventra/inventra/internal/auth"
)

// CodeInvalidManifest is attached to every manifest validation failure.
const CodeInvalidManifest = "SEED_MANIFEST_INVALID"

// Manifest is the content of a seed file.
type Manifest struct {
	Branches []BranchSeed  `yaml:"branches,omitempty" jsonschema:"description=Branches to create when missing"`
	Roles    []RoleSeed    `yaml:"roles,omitempty" jsonschema:"description=Roles to create when missing"`
	Accounts []AccountSeed `yaml:"accounts,omitempty" jsonschema:"description=Accounts to create when missing"`
}

// BranchSeed describes one branch.
type BranchSeed struct {
	Name    string `yaml:"name" jsonschema:"required,minLength=1,maxLength=100"`
	Address string `yaml:"address,omitempty" jsonschema:"maxLength=200"`
	Phone   string `yaml:"phone,omitempty" jsonschema:"maxLength=20"`
}

// RoleSeed describes one role.
type RoleSeed struct {
	Name        string `yaml:"name" jsonschema:"required,minLength=1,maxLength=50"`
	Description string `yaml:"description,omitempty" jsonschema:"maxLength=200"`
	Supervisor  bool   `yaml:"supervisor,omitempty"`
}

// AccountSeed describes one account. Password is plaintext and is hashed
// when the manifest is applied.
type AccountSeed struct {
	Email     string `yaml:"email" jsonschema:"required,minLength=3,maxLength=100"`
	Password  string `yaml:"password" jsonschema:"required,minLength=1"`
	FirstName string `yaml:"first_name" jsonschema:"required,minLength=1,maxLength=100"`
	LastName  string `yaml:"last_name" jsonschema:"required,minLength=1,maxLength=100"`
	Branch    string `yaml:"branch,omitempty" jsonschema:"description=Name of a branch defined in this manifest"`
	Role      string `yaml:"role,omitempty" jsonschema:"description=Name of a role defined in this manifest"`
}

// ParseManifest decodes and validates a seed manifest. Unknown keys are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, oops.Code(CodeInvalidManifest).Errorf("manifest data is empty")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, oops.Code(CodeInvalidManifest).With("operation", "decode YAML").Wrap(err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for duplicate names and emails, addresses
// that cannot be stored, and references to branches or roles it does not
// define.
func (m *Manifest) Validate() error {
	branches := make(map[string]struct{}, len(m.Branches))
	for i, b := range m.Branches {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return invalid("branches", i).Errorf("branch name is required")
		}
		if _, dup := branches[name]; dup {
			return invalid("branches", i).Errorf("duplicate branch %q", name)
		}
		branches[name] = struct{}{}
	}

	roles := make(map[string]struct{}, len(m.Roles))
	for i, r := range m.Roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return invalid("roles", i).Errorf("role name is required")
		}
		if _, dup := roles[name]; dup {
			return invalid("roles", i).Errorf("duplicate role %q", name)
		}
		roles[name] = struct{}{}
	}

	emails := make(map[string]struct{}, len(m.Accounts))
	for i, a := range m.Accounts {
		email := auth.NormalizeEmail(a.Email)
		if err := auth.ValidateEmail(email); err != nil {
			return invalid("accounts", i).With("email", a.Email).Errorf("invalid email %q", a.Email)
		}
		if _, dup := emails[email]; dup {
			return invalid("accounts", i).Errorf("duplicate account %q", email)
		}
		emails[email] = struct{}{}

		if a.Password == "" {
			return invalid("accounts", i).Errorf("password is required for %q", email)
		}
		if a.Branch != "" {
			if _, ok := branches[strings.TrimSpace(a.Branch)]; !ok {
				return invalid("accounts", i).Errorf("account %q references unknown branch %q", email, a.Branch)
			}
		}
		if a.Role != "" {
			if _, ok := roles[strings.TrimSpace(a.Role)]; !ok {
				return invalid("accounts", i).Errorf("account %q references unknown role %q", email, a.Role)
			}
		}
	}
	return nil
}

func invalid(section string, index int) oops.OopsErrorBuilder {
	return oops.Code(CodeInvalidManifest).With("section", section).With("index", index)
}
