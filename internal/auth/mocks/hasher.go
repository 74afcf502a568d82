// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/inventra/inventra/internal/auth"
)

// MockPasswordHasher is a testify mock of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock that asserts its expectations on cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(password, storedHash string) bool {
	ret := m.Called(password, storedHash)
	return ret.Bool(0)
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
