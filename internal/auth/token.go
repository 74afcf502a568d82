// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Default token settings.
const (
	DefaultTokenAlgorithm = "HS256"
	DefaultTokenTTL       = 30 * time.Minute
)

// Registered claim names managed by the issuer.
const (
	ClaimSubject   = "sub"
	ClaimEmail     = "email"
	ClaimExpiresAt = "exp"
	ClaimIssuedAt  = "iat"
	ClaimTokenID   = "jti"
)

// TokenIssuerConfig configures a TokenIssuer.
type TokenIssuerConfig struct {
	// Secret is the HMAC key. Required.
	Secret string

	// Algorithm is the JWT signing algorithm (HS256, HS384 or HS512).
	// Defaults to DefaultTokenAlgorithm when empty.
	Algorithm string

	// DefaultTTL is used when Issue is called with a non-positive ttl.
	// Defaults to DefaultTokenTTL when zero.
	DefaultTTL time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// TokenIssuer creates and parses signed, time-bounded bearer tokens.
type TokenIssuer struct {
	method     *jwt.SigningMethodHMAC
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
// Returns a TOKEN_SIGNING_FAILED error if the key or algorithm is unusable.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, oops.Code(CodeTokenSigningFailed).Errorf("signing secret cannot be empty")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultTokenAlgorithm
	}
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}

	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenIssuer{
		method:     method,
		secret:     []byte(cfg.Secret),
		defaultTTL: ttl,
		now:        now,
	}, nil
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.Code(CodeTokenSigningFailed).
			With("algorithm", alg).
			Errorf("unsupported signing algorithm %q", alg)
	}
	return method, nil
}

// Algorithm returns the configured signing algorithm name.
func (i *TokenIssuer) Algorithm() string {
	return i.method.Alg()
}

// Issue signs claims into a token that expires after ttl.
// A non-positive ttl uses the configured default. The exp, iat and jti
// claims are always set by the issuer.
func (i *TokenIssuer) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.defaultTTL
	}
	now := i.now()

	mc := make(jwt.MapClaims, len(claims)+3)
	for k, v := range claims {
		mc[k] = v
	}
	mc[ClaimExpiresAt] = jwt.NewNumericDate(now.Add(ttl))
	mc[ClaimIssuedAt] = jwt.NewNumericDate(now)
	mc[ClaimTokenID] = uuid.NewString()

	signed, err := jwt.NewWithClaims(i.method, mc).SignedString(i.secret)
	if err != nil {
		return "", oops.Code(CodeTokenSigningFailed).
			With("algorithm", i.method.Alg()).
			Wrap(err)
	}
	return signed, nil
}

// Parse verifies the token signature and expiry and returns its claims.
func (i *TokenIssuer) Parse(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeTokenExpired).Errorf("token has expired")
		}
		return nil, oops.Code(CodeTokenInvalid).Wrap(err)
	}
	if !parsed.Valid {
		return nil, oops.Code(CodeTokenInvalid).Errorf("invalid token")
	}
	return claims, nil
}
