// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package orchestrator

import "time"

// CheckAutoReturnForTest runs one auto-return evaluation synchronously.
func (o *Orchestrator) CheckAutoReturnForTest() {
	o.checkAutoReturn()
}

// SetNowFunc overrides the time source (for testing).
func (o *Orchestrator) SetNowFunc(fn func() time.Time) {
	o.nowFunc = fn
}

// EventLogCap exposes the backlog bound for overflow tests.
const EventLogCap = eventLogCap
