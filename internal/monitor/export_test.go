// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package monitor

import (
	"context"
	"time"
)

// ProbeAllForTest runs one probe cycle without starting the loop and waits
// for every probe launched by that cycle.
func (m *Monitor) ProbeAllForTest(ctx context.Context) {
	m.probeAll(ctx).Wait()
}

// SetNowFunc overrides the time source (for testing).
func (m *Monitor) SetNowFunc(fn func() time.Time) {
	m.nowFunc = fn
}

// ProbeTimeout exposes the computed per-probe deadline.
func (m *Monitor) ProbeTimeout() time.Duration {
	return m.probeTimeout
}
