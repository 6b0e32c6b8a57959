// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package runner

import (
	"context"
	"time"
)

// SetSleepFunc overrides the backoff sleeper (for testing).
func (r *Runner) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	r.sleepFunc = fn
}

// SetNowFunc overrides the time source (for testing).
func (r *Runner) SetNowFunc(fn func() time.Time) {
	r.nowFunc = fn
}

// Backoff exposes the backoff schedule for assertion.
var Backoff = backoff
