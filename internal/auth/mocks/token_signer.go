// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/inventra/inventra/internal/auth"
)

// MockTokenSigner is a testify mock of auth.TokenSigner.
type MockTokenSigner struct {
	mock.Mock
}

// NewMockTokenSigner creates a mock that asserts its expectations on cleanup.
func NewMockTokenSigner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenSigner {
	m := &MockTokenSigner{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue provides a mock function.
func (m *MockTokenSigner) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	ret := m.Called(claims, ttl)
	return ret.String(0), ret.Error(1)
}

var _ auth.TokenSigner = (*MockTokenSigner)(nil)
