// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"context"

	"github.com/inventra/inventra/internal/auth"
)

// PassthroughTransactor runs fn directly without a database transaction.
// Err, when set, is returned instead of calling fn.
type PassthroughTransactor struct {
	Err   error
	Calls int
}

// InTransaction implements auth.Transactor.
func (p *PassthroughTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.Calls++
	if p.Err != nil {
		return p.Err
	}
	return fn(ctx)
}

var _ auth.Transactor = (*PassthroughTransactor)(nil)
