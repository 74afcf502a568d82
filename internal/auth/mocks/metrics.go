// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package mocks

import (
	"sync"

	"github.com/inventra/inventra/internal/auth"
)

// RecordingMetrics captures recorded results in memory.
type RecordingMetrics struct {
	mu            sync.Mutex
	Logins        []string
	Logouts       []string
	SessionChecks []string
}

// RecordLogin implements auth.Metrics.
func (r *RecordingMetrics) RecordLogin(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logins = append(r.Logins, result)
}

// RecordLogout implements auth.Metrics.
func (r *RecordingMetrics) RecordLogout(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logouts = append(r.Logouts, result)
}

// RecordSessionCheck implements auth.Metrics.
func (r *RecordingMetrics) RecordSessionCheck(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SessionChecks = append(r.SessionChecks, result)
}

var _ auth.Metrics = (*RecordingMetrics)(nil)
