// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package monitor runs the periodic health probes. It is the sole writer of
// the per-provider health table; readers always get the last known snapshot
// and never block on network I/O.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/switchyard-dev/switchyard/internal/provider"
	"github.com/switchyard-dev/switchyard/pkg/health"
)

// maxProbeTimeout caps the per-probe deadline regardless of how long the
// check interval is.
const maxProbeTimeout = 5 * time.Second

// Monitor probes each configured provider once per interval. Probes for
// different providers run concurrently; a provider whose previous probe is
// still outstanding is skipped for the cycle rather than queued.
type Monitor struct {
	interval     time.Duration
	probeTimeout time.Duration
	probes       map[provider.Identity]provider.Probe

	mu       sync.RWMutex
	table    map[provider.Identity]health.Snapshot
	inflight map[provider.Identity]bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   bool // guarded by mu; Start after Stop is a no-op
	cancel    context.CancelFunc
	done      chan struct{}

	nowFunc func() time.Time // for testing
}

// New creates a Monitor for the given probes. Returns an error if no probes
// are supplied or the interval is not positive.
func New(probes map[provider.Identity]provider.Probe, interval time.Duration) (*Monitor, error) {
	if len(probes) == 0 {
		return nil, fmt.Errorf("monitor requires at least one probe")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive, got %s", interval)
	}

	probeTimeout := interval / 2
	if probeTimeout > maxProbeTimeout {
		probeTimeout = maxProbeTimeout
	}

	m := &Monitor{
		interval:     interval,
		probeTimeout: probeTimeout,
		probes:       probes,
		table:        make(map[provider.Identity]health.Snapshot, len(probes)),
		inflight:     make(map[provider.Identity]bool, len(probes)),
		done:         make(chan struct{}),
		nowFunc:      time.Now,
	}
	return m, nil
}

// Start begins the probe cycle. The first cycle runs immediately so health
// data is available before the first interval elapses. Starting a monitor
// that was already stopped is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		ctx, m.cancel = context.WithCancel(ctx)
		m.mu.Unlock()
		go m.loop(ctx)
	})
}

// Stop cancels the probe cycle and waits for the loop to exit. Probes
// already in flight finish on their own timeouts.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		cancel := m.cancel
		m.mu.Unlock()

		if cancel == nil {
			close(m.done)
			return
		}
		cancel()
		<-m.done
	})
}

// Health returns the most recent snapshot for a provider. A provider that
// has never been probed reports available=false with a zero LastCheckedAt.
func (m *Monitor) Health(id provider.Identity) health.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if snap, ok := m.table[id]; ok {
		return snap
	}
	return health.Snapshot{Provider: id.String(), Available: false}
}

// Table returns a copy of the full health table, one entry per known probe.
func (m *Monitor) Table() map[provider.Identity]health.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[provider.Identity]health.Snapshot, len(m.probes))
	for id := range m.probes {
		if snap, ok := m.table[id]; ok {
			out[id] = snap
		} else {
			out[id] = health.Snapshot{Provider: id.String(), Available: false}
		}
	}
	return out
}

// Interval returns the configured probe interval.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	m.probeAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

// probeAll starts one probe goroutine per provider and returns without
// waiting, so a probe that outlives its deadline never stalls the cycle for
// the other providers; that provider is simply skipped on subsequent ticks
// until its probe returns. The returned WaitGroup tracks the probes launched
// this cycle.
func (m *Monitor) probeAll(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup

	for id, probe := range m.probes {
		m.mu.Lock()
		if m.inflight[id] {
			m.mu.Unlock()
			slog.Debug("skipping probe, previous still outstanding", "provider", id)
			continue
		}
		m.inflight[id] = true
		m.mu.Unlock()

		wg.Add(1)
		go func(id provider.Identity, probe provider.Probe) {
			defer wg.Done()
			defer func() {
				m.mu.Lock()
				m.inflight[id] = false
				m.mu.Unlock()
			}()
			m.probeOne(ctx, id, probe)
		}(id, probe)
	}

	return &wg
}

func (m *Monitor) probeOne(ctx context.Context, id provider.Identity, probe provider.Probe) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("probe panicked", "provider", id, "panic", r)
			m.record(id, health.Snapshot{
				Provider:      id.String(),
				Available:     false,
				LastCheckedAt: m.nowFunc(),
				LastError:     fmt.Sprintf("probe panic: %v", r),
			})
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	start := m.nowFunc()
	res, err := probe.Check(ctx)
	checkedAt := m.nowFunc()

	if err != nil {
		slog.Warn("health probe failed", "provider", id, "error", err)
		m.record(id, health.Snapshot{
			Provider:      id.String(),
			Available:     false,
			LastCheckedAt: checkedAt,
			LastError:     err.Error(),
		})
		return
	}

	latency := checkedAt.Sub(start).Milliseconds()
	m.record(id, health.Snapshot{
		Provider:           id.String(),
		Available:          true,
		LatencyMs:          &latency,
		RateLimitRemaining: res.RateLimitRemaining,
		RateLimitResetAt:   res.RateLimitResetAt,
		LastCheckedAt:      checkedAt,
	})
}

// record replaces a provider's snapshot whole so readers never observe a
// partial update.
func (m *Monitor) record(id provider.Identity, snap health.Snapshot) {
	m.mu.Lock()
	m.table[id] = snap
	m.mu.Unlock()
}
