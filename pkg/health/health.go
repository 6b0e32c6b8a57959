// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package health

import "time"

// Snapshot is the last observed health state of one provider. Snapshots are
// replaced whole on every probe cycle, never mutated in place, so a reader
// always sees a consistent point-in-time view. All fields are safe to
// serialize to JSON; optional fields are nil when the probe did not report
// them, which is distinct from a zero value.
type Snapshot struct {
	Provider           string     `json:"provider"`
	Available          bool       `json:"available"`
	LatencyMs          *int64     `json:"latency_ms,omitempty"`
	RateLimitRemaining *int       `json:"rate_limit_remaining,omitempty"`
	RateLimitResetAt   *time.Time `json:"rate_limit_reset_at,omitempty"`
	LastCheckedAt      time.Time  `json:"last_checked_at"`
	LastError          string     `json:"last_error,omitempty"`
}

// Checked reports whether the provider has been probed at least once.
func (s Snapshot) Checked() bool {
	return !s.LastCheckedAt.IsZero()
}
