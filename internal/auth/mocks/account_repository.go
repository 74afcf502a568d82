// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inventra/inventra/internal/auth"
)

// MockAccountRepository is a testify mock of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a mock that asserts its expectations on cleanup.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockAccountRepository) Create(ctx context.Context, account *auth.Account) error {
	ret := m.Called(ctx, account)
	return ret.Error(0)
}

// FindActiveByEmail provides a mock function.
func (m *MockAccountRepository) FindActiveByEmail(ctx context.Context, email string) (*auth.Account, error) {
	ret := m.Called(ctx, email)
	account, _ := ret.Get(0).(*auth.Account)
	return account, ret.Error(1)
}

var _ auth.AccountRepository = (*MockAccountRepository)(nil)
