// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package orchestrator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/switchyard-dev/switchyard/internal/provider"
)

// SwitchReason says why the active provider moved.
type SwitchReason string

const (
	ReasonRateLimit  SwitchReason = "rate-limit"
	ReasonError      SwitchReason = "error"
	ReasonManual     SwitchReason = "manual"
	ReasonAutoReturn SwitchReason = "auto-return"
)

// SwitchEvent is one append-only history record. Events are ordered by
// occurrence and never mutated after append.
type SwitchEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	From      provider.Identity `json:"from"`
	To        provider.Identity `json:"to"`
	Reason    SwitchReason      `json:"reason"`
	Automatic bool              `json:"automatic"`
}

// eventLogCap bounds the undrained event backlog. A reporting collaborator
// drains far more often than 4096 switches can occur; if it does not, the
// oldest events are dropped and the loss is flagged on the next drain.
const eventLogCap = 4096

// eventLog is a bounded, caller-drained switch history. The orchestrator is
// its only writer.
type eventLog struct {
	mu         sync.Mutex
	events     []SwitchEvent
	overflowed bool
}

func newEventLog() *eventLog {
	return &eventLog{}
}

func (l *eventLog) append(e SwitchEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) >= eventLogCap {
		slog.Warn("switch event log full, dropping oldest event",
			"dropped_id", l.events[0].ID, "cap", eventLogCap)
		l.events = l.events[1:]
		l.overflowed = true
	}
	l.events = append(l.events, e)
}

// snapshot returns a copy of the pending events without consuming them.
func (l *eventLog) snapshot() []SwitchEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]SwitchEvent, len(l.events))
	copy(out, l.events)
	return out
}

// drain returns all pending events in append order and clears the log.
// The second return reports whether events were dropped since the last
// drain because the backlog hit its cap.
func (l *eventLog) drain() ([]SwitchEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.events
	overflowed := l.overflowed
	l.events = nil
	l.overflowed = false
	return out, overflowed
}

func newEventID() string {
	return uuid.NewString()
}
