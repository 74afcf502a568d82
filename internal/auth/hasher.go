// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/scrypt"
)

// HashAlgorithm is the tag written in front of every credential hash.
const HashAlgorithm = "scrypt"

// Default scrypt cost parameters. A single derivation costs tens of
// milliseconds and 64 MB of memory on commodity hardware.
const (
	DefaultScryptN       = 1 << 16
	DefaultScryptR       = 8
	DefaultScryptP       = 1
	DefaultScryptKeyLen  = 32
	DefaultScryptSaltLen = 16
)

// minSaltLen is the smallest salt the hasher accepts.
const minSaltLen = 16

// maxKeyLen bounds the derived key length read back from a stored hash.
const maxKeyLen = 1024

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeEmptyPassword).Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a tagged credential hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches the stored hash.
	// It never fails: malformed input simply does not match.
	Verify(password, storedHash string) bool
}

// HasherParams holds the scrypt cost factors.
type HasherParams struct {
	N       int // CPU/memory cost, power of two
	R       int // block size
	P       int // parallelization
	KeyLen  int // derived key length in bytes
	SaltLen int // random salt length in bytes
}

// DefaultHasherParams returns the production cost factors.
func DefaultHasherParams() HasherParams {
	return HasherParams{
		N:       DefaultScryptN,
		R:       DefaultScryptR,
		P:       DefaultScryptP,
		KeyLen:  DefaultScryptKeyLen,
		SaltLen: DefaultScryptSaltLen,
	}
}

// Validate checks the parameters against scrypt's constraints.
func (p HasherParams) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return oops.Code(CodeHasherMisconfigured).With("n", p.N).Errorf("scrypt N must be a power of two greater than 1")
	}
	if p.R <= 0 || p.P <= 0 {
		return oops.Code(CodeHasherMisconfigured).With("r", p.R).With("p", p.P).Errorf("scrypt r and p must be positive")
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 {
		return oops.Code(CodeHasherMisconfigured).With("r", p.R).With("p", p.P).Errorf("scrypt r*p must be below 2^30")
	}
	if p.KeyLen <= 0 || p.KeyLen > maxKeyLen {
		return oops.Code(CodeHasherMisconfigured).With("key_len", p.KeyLen).Errorf("invalid derived key length")
	}
	if p.SaltLen < minSaltLen {
		return oops.Code(CodeHasherMisconfigured).With("salt_len", p.SaltLen).Errorf("salt must be at least %d bytes", minSaltLen)
	}
	return nil
}

// ScryptHasher implements PasswordHasher using scrypt.
type ScryptHasher struct {
	params HasherParams
}

// NewScryptHasher creates a ScryptHasher with validated parameters.
func NewScryptHasher(params HasherParams) (*ScryptHasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &ScryptHasher{params: params}, nil
}

// Hash produces a hash in the form scrypt$<base64 salt>$<base64 key>.
func (h *ScryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, h.params.KeyLen)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("operation", "derive scrypt key").Wrap(err)
	}

	return strings.Join([]string{
		HashAlgorithm,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	}, "$"), nil
}

// Verify checks if the password matches the stored hash.
func (h *ScryptHasher) Verify(password, storedHash string) bool {
	if password == "" || storedHash == "" {
		return false
	}

	parts := strings.Split(storedHash, "$")
	if len(parts) != 3 || parts[0] != HashAlgorithm {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(expected) == 0 || len(expected) > maxKeyLen {
		return false
	}

	computed, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, len(expected))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

var _ PasswordHasher = (*ScryptHasher)(nil)
