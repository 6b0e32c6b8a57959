// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package orchestrator is the composing state machine: it holds the current
// active provider, runs tasks through the execution runner, switches to the
// next provider in the chain on classified failures, and returns to the
// primary once the health monitor sees it recover.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/switchyard-dev/switchyard/internal/config"
	"github.com/switchyard-dev/switchyard/internal/monitor"
	"github.com/switchyard-dev/switchyard/internal/provider"
	"github.com/switchyard-dev/switchyard/internal/runner"
	"github.com/switchyard-dev/switchyard/internal/state"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
	"github.com/switchyard-dev/switchyard/pkg/health"
)

// Config is the validated, typed failover configuration. It is immutable
// after construction; changing configuration means building a new
// Orchestrator.
type Config struct {
	Primary             provider.Identity
	Chain               []provider.Identity
	AutoReturn          bool
	HealthCheckInterval time.Duration
	RetryDefaults       config.RetryConfig
	Retry               map[provider.Identity]config.RetryConfig
}

// FromFailover converts a parsed config.FailoverConfig into a typed Config,
// validating every provider name against the closed identity set.
func FromFailover(fc config.FailoverConfig) (Config, error) {
	primary, err := provider.ParseIdentity(fc.Primary)
	if err != nil {
		return Config{}, err
	}

	chain := make([]provider.Identity, 0, len(fc.Chain))
	for _, name := range fc.Chain {
		id, err := provider.ParseIdentity(name)
		if err != nil {
			return Config{}, err
		}
		chain = append(chain, id)
	}

	retry := make(map[provider.Identity]config.RetryConfig, len(fc.Retry))
	for name := range fc.Retry {
		id, err := provider.ParseIdentity(name)
		if err != nil {
			return Config{}, err
		}
		retry[id] = fc.RetryFor(name)
	}

	return Config{
		Primary:             primary,
		Chain:               chain,
		AutoReturn:          fc.AutoReturn,
		HealthCheckInterval: fc.HealthCheckInterval,
		RetryDefaults:       fc.RetryDefaults,
		Retry:               retry,
	}, nil
}

func (c Config) validate() error {
	if c.Primary == "" {
		return syerr.New(syerr.CodeConfigValidateInvalidValue, "failover config: primary is required")
	}
	if c.HealthCheckInterval <= 0 {
		return syerr.Errorf(syerr.CodeConfigValidateInvalidValue,
			"failover config: health check interval must be positive, got %s", c.HealthCheckInterval)
	}

	seen := map[provider.Identity]bool{c.Primary: true}
	for _, id := range c.Chain {
		if id == c.Primary {
			return syerr.New(syerr.CodeConfigValidateInvalidValue,
				"failover config: chain must not contain the primary provider",
				syerr.FieldProvider(id.String()))
		}
		if seen[id] {
			return syerr.New(syerr.CodeConfigValidateInvalidValue,
				"failover config: chain contains duplicate provider",
				syerr.FieldProvider(id.String()))
		}
		seen[id] = true
	}
	return nil
}

// retryFor returns the retry policy for a provider, defaulting when no
// per-provider override exists.
func (c Config) retryFor(id provider.Identity) config.RetryConfig {
	if rc, ok := c.Retry[id]; ok {
		return rc
	}
	return c.RetryDefaults
}

// Orchestrator executes tasks with transparent failover. The active
// provider pointer and the switch event log have exactly one writer: the
// switch critical section guarded by mu. Health data is owned by the
// monitor; the orchestrator only reads it.
type Orchestrator struct {
	cfg       Config
	executors map[provider.Identity]provider.Executor
	runner    *runner.Runner
	monitor   *monitor.Monitor

	mu     sync.Mutex
	active provider.Identity

	events *eventLog

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   bool // guarded by mu; Start after Stop is a no-op
	cancel    context.CancelFunc
	done      chan struct{}

	nowFunc func() time.Time // for testing
}

// New creates an Orchestrator in Active(primary). The primary and every
// chain provider must have an executor.
func New(cfg Config, executors map[provider.Identity]provider.Executor, mon *monitor.Monitor, run *runner.Runner) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if run == nil {
		run = runner.New(nil)
	}

	for _, id := range append([]provider.Identity{cfg.Primary}, cfg.Chain...) {
		if _, ok := executors[id]; !ok {
			return nil, syerr.New(syerr.CodeProviderNotFound,
				"no executor for configured provider",
				syerr.FieldProvider(id.String()))
		}
	}

	return &Orchestrator{
		cfg:       cfg,
		executors: executors,
		runner:    run,
		monitor:   mon,
		active:    cfg.Primary,
		events:    newEventLog(),
		done:      make(chan struct{}),
		nowFunc:   time.Now,
	}, nil
}

// Start launches the health monitor and the auto-return loop. Safe to call
// once; subsequent calls are no-ops, as is starting an orchestrator that was
// already stopped.
func (o *Orchestrator) Start(ctx context.Context) {
	o.startOnce.Do(func() {
		o.mu.Lock()
		if o.stopped {
			o.mu.Unlock()
			return
		}
		ctx, o.cancel = context.WithCancel(ctx)
		o.mu.Unlock()

		if o.monitor != nil {
			o.monitor.Start(ctx)
		}
		go o.autoReturnLoop(ctx)
	})
}

// Stop cancels the health monitor and the auto-return loop. Tasks already
// in flight are not aborted; they complete or time out on their own.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.stopped = true
		cancel := o.cancel
		o.mu.Unlock()

		if cancel == nil {
			close(o.done)
			return
		}
		cancel()
		<-o.done
		if o.monitor != nil {
			o.monitor.Stop()
		}
	})
}

// Execute runs a task against the current active provider, switching down
// the chain on rate-limited or transient failures, up to one attempt per
// configured provider. A fatal classification propagates immediately with
// no switch. When every provider has failed, the returned error carries one
// attempt record per provider tried, in order; use AttemptsOf to read them.
func (o *Orchestrator) Execute(ctx context.Context, task provider.Task) (provider.Result, error) {
	maxHops := len(o.cfg.Chain) + 1

	var attempts []provider.AttemptRecord
	var lastResult provider.Result

	for hop := 0; hop < maxHops; hop++ {
		active := o.Active()

		res, err := o.runner.Run(ctx, o.cfg.retryFor(active), active, task, o.executors[active])
		if err == nil {
			res.FallbackUsed = active != o.cfg.Primary
			return res, nil
		}

		if res.ErrorKind == provider.ClassFatal {
			// Fatal on one provider is fatal for the task itself; no switch.
			return res, err
		}

		attempts = append(attempts, provider.AttemptRecord{Provider: active, Kind: res.ErrorKind})
		lastResult = res

		next, moved, serr := o.switchAfterFailure(active, res.ErrorKind, &task)
		if serr != nil {
			return res, serr
		}
		if !moved {
			break
		}
		slog.Info("switched provider after failure",
			"from", active, "to", next, "kind", res.ErrorKind, "task_id", task.ID)
	}

	return lastResult, exhaustionError(attempts)
}

// switchAfterFailure is the switch critical section. If another caller
// already moved the active pointer while this task was failing, no second
// switch happens; the caller simply retries against the new active provider.
// Returns the provider to try next and whether the loop should continue.
func (o *Orchestrator) switchAfterFailure(observed provider.Identity, kind provider.Classification, task *provider.Task) (provider.Identity, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != observed {
		// Concurrent switch already happened; re-evaluate under the new
		// active provider without appending a duplicate event.
		return o.active, true, nil
	}

	next, ok := o.successorLocked(observed)
	if !ok {
		return observed, false, nil
	}

	snap, err := state.Capture(*task)
	if err != nil {
		return observed, false, err
	}

	reason := ReasonError
	if kind == provider.ClassRateLimited {
		reason = ReasonRateLimit
	}
	o.active = next
	o.appendEventLocked(observed, next, reason, true)

	restored, err := state.Restore(snap, *task)
	if err != nil {
		return next, false, err
	}
	*task = restored

	return next, true, nil
}

// FallbackToNext manually advances the active provider to its successor in
// the chain. It follows the same critical-section discipline as automatic
// switching; in-flight tasks are unaffected and finish on the provider they
// started on.
func (o *Orchestrator) FallbackToNext() (provider.Identity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, ok := o.successorLocked(o.active)
	if !ok {
		return o.active, syerr.New(syerr.CodeProviderNotFound,
			"no fallback provider remaining after "+o.active.String(),
			syerr.FieldProvider(o.active.String()))
	}

	from := o.active
	o.active = next
	o.appendEventLocked(from, next, ReasonManual, false)
	slog.Info("manual fallback", "from", from, "to", next)
	return next, nil
}

// ReturnToPrimary manually switches back to the primary provider. It is a
// no-op when the primary is already active.
func (o *Orchestrator) ReturnToPrimary() (provider.Identity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == o.cfg.Primary {
		return o.active, nil
	}

	from := o.active
	o.active = o.cfg.Primary
	o.appendEventLocked(from, o.cfg.Primary, ReasonManual, false)
	slog.Info("manual return to primary", "from", from, "to", o.cfg.Primary)
	return o.cfg.Primary, nil
}

// Active returns the current active provider.
func (o *Orchestrator) Active() provider.Identity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Primary returns the configured primary provider.
func (o *Orchestrator) Primary() provider.Identity {
	return o.cfg.Primary
}

// Health returns the last known health snapshot for one provider.
func (o *Orchestrator) Health(id provider.Identity) health.Snapshot {
	if o.monitor == nil {
		return health.Snapshot{Provider: id.String(), Available: false}
	}
	return o.monitor.Health(id)
}

// HealthTable returns the full health table.
func (o *Orchestrator) HealthTable() map[provider.Identity]health.Snapshot {
	if o.monitor == nil {
		return map[provider.Identity]health.Snapshot{}
	}
	return o.monitor.Table()
}

// Events returns a copy of the switch history without consuming it.
func (o *Orchestrator) Events() []SwitchEvent {
	return o.events.snapshot()
}

// DrainEvents returns the switch history in order and clears it. The bool
// reports whether any events were dropped since the last drain.
func (o *Orchestrator) DrainEvents() ([]SwitchEvent, bool) {
	return o.events.drain()
}

// autoReturnLoop checks, on the health-check cadence, whether the primary
// has recovered while a fallback provider is active. It runs independently
// of task submission.
func (o *Orchestrator) autoReturnLoop(ctx context.Context) {
	defer close(o.done)

	ticker := time.NewTicker(o.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.checkAutoReturn()
		}
	}
}

// checkAutoReturn performs the auto-return transition when enabled, a
// fallback provider is active, and the monitor reports the primary healthy.
func (o *Orchestrator) checkAutoReturn() {
	if !o.cfg.AutoReturn || o.monitor == nil {
		return
	}

	o.mu.Lock()
	if o.active == o.cfg.Primary {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	snap := o.monitor.Health(o.cfg.Primary)
	if !snap.Available {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == o.cfg.Primary {
		return
	}
	from := o.active
	o.active = o.cfg.Primary
	o.appendEventLocked(from, o.cfg.Primary, ReasonAutoReturn, true)
	slog.Info("primary recovered, auto-returning", "from", from, "to", o.cfg.Primary)
}

// successorLocked returns the next provider after p in primary-then-chain
// order. Caller must hold o.mu.
func (o *Orchestrator) successorLocked(p provider.Identity) (provider.Identity, bool) {
	if p == o.cfg.Primary {
		if len(o.cfg.Chain) == 0 {
			return "", false
		}
		return o.cfg.Chain[0], true
	}
	for i, id := range o.cfg.Chain {
		if id == p {
			if i+1 < len(o.cfg.Chain) {
				return o.cfg.Chain[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// appendEventLocked records a switch. Caller must hold o.mu so events stay
// in causal order with the active-pointer moves they describe.
func (o *Orchestrator) appendEventLocked(from, to provider.Identity, reason SwitchReason, automatic bool) {
	o.events.append(SwitchEvent{
		ID:        newEventID(),
		Timestamp: o.nowFunc(),
		From:      from,
		To:        to,
		Reason:    reason,
		Automatic: automatic,
	})
}

// exhaustionError aggregates one record per attempted provider so the
// caller can tell "everything rate-limited" from "everything broken".
func exhaustionError(attempts []provider.AttemptRecord) error {
	return syerr.New(syerr.CodeProviderExhausted,
		fmt.Sprintf("all %d providers exhausted", len(attempts)),
		syerr.Field("attempts", attempts),
	)
}

// AttemptsOf extracts the per-provider attempt records from an exhaustion
// error, or nil for any other error.
func AttemptsOf(err error) []provider.AttemptRecord {
	if !syerr.IsExhausted(err) {
		return nil
	}
	fields := syerr.FieldsOf(err)
	if fields == nil {
		return nil
	}
	records, _ := fields["attempts"].([]provider.AttemptRecord)
	return records
}
