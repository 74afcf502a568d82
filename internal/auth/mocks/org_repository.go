// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inventra/inventra/internal/auth"
)

// MockOrgRepository is a testify mock of auth.OrgRepository.
type MockOrgRepository struct {
	mock.Mock
}

// NewMockOrgRepository creates a mock that asserts its expectations on cleanup.
func NewMockOrgRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrgRepository {
	m := &MockOrgRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// EnsureBranch provides a mock function.
func (m *MockOrgRepository) EnsureBranch(ctx context.Context, branch *auth.Branch) (*auth.Branch, error) {
	ret := m.Called(ctx, branch)
	if fn, ok := ret.Get(0).(func(context.Context, *auth.Branch) (*auth.Branch, error)); ok {
		return fn(ctx, branch)
	}
	stored, _ := ret.Get(0).(*auth.Branch)
	return stored, ret.Error(1)
}

// EnsureRole provides a mock function.
func (m *MockOrgRepository) EnsureRole(ctx context.Context, role *auth.Role) (*auth.Role, error) {
	ret := m.Called(ctx, role)
	if fn, ok := ret.Get(0).(func(context.Context, *auth.Role) (*auth.Role, error)); ok {
		return fn(ctx, role)
	}
	stored, _ := ret.Get(0).(*auth.Role)
	return stored, ret.Error(1)
}

var _ auth.OrgRepository = (*MockOrgRepository)(nil)
