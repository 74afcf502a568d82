// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/inventra/inventra/internal/auth"
)

// MockSessionStore is a testify mock of auth.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

// NewMockSessionStore creates a mock that asserts its expectations on cleanup.
func NewMockSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionStore {
	m := &MockSessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Insert provides a mock function.
func (m *MockSessionStore) Insert(ctx context.Context, accountID ulid.ULID, token string, startedAt, expiresAt time.Time) (*auth.Session, error) {
	ret := m.Called(ctx, accountID, token, startedAt, expiresAt)
	if fn, ok := ret.Get(0).(func(context.Context, ulid.ULID, string, time.Time, time.Time) (*auth.Session, error)); ok {
		return fn(ctx, accountID, token, startedAt, expiresAt)
	}
	session, _ := ret.Get(0).(*auth.Session)
	return session, ret.Error(1)
}

// FindActiveByToken provides a mock function.
func (m *MockSessionStore) FindActiveByToken(ctx context.Context, token string) (*auth.Session, error) {
	ret := m.Called(ctx, token)
	session, _ := ret.Get(0).(*auth.Session)
	return session, ret.Error(1)
}

// DeactivateAllActiveForAccount provides a mock function.
func (m *MockSessionStore) DeactivateAllActiveForAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	ret := m.Called(ctx, accountID)
	n, _ := ret.Get(0).(int64)
	return n, ret.Error(1)
}

// DeactivateByToken provides a mock function.
func (m *MockSessionStore) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	ret := m.Called(ctx, token)
	n, _ := ret.Get(0).(int64)
	return n, ret.Error(1)
}

var _ auth.SessionStore = (*MockSessionStore)(nil)
