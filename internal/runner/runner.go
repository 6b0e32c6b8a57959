// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package runner wraps a single provider invocation with timeout, retry
// with backoff, and failure classification. It touches no shared state;
// everything it needs arrives as arguments.
package runner

import (
	"context"
	"time"

	"github.com/switchyard-dev/switchyard/internal/config"
	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// backoffCapFactor caps the linear backoff at this multiple of the base delay.
const backoffCapFactor = 10

// Runner executes tasks against a single provider with the retry policy the
// orchestrator hands it per call.
type Runner struct {
	classify  provider.Classifier
	sleepFunc func(ctx context.Context, d time.Duration) error // for testing
	nowFunc   func() time.Time                                 // for testing
}

// New creates a Runner with the given classifier. A nil classifier uses
// provider.DefaultClassifier.
func New(classify provider.Classifier) *Runner {
	if classify == nil {
		classify = provider.DefaultClassifier
	}
	return &Runner{
		classify:  classify,
		sleepFunc: sleepContext,
		nowFunc:   time.Now,
	}
}

// Run invokes the executor for one provider, enforcing the policy's timeout
// per attempt and up to MaxAttempts attempts with linear capped backoff.
//
// A rate-limited classification short-circuits remaining attempts: retrying
// a rate-limited provider locally is pointless, the orchestrator should
// switch instead. A fatal classification propagates immediately. The
// returned Result is populated on failure as well as success so the caller
// always has attempt and duration accounting.
func (r *Runner) Run(ctx context.Context, policy config.RetryConfig, id provider.Identity, task provider.Task, exec provider.Executor) (provider.Result, error) {
	start := r.nowFunc()

	var lastErr error
	var lastClass provider.Classification

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		value, err := r.invoke(ctx, policy.Timeout, task, exec)
		if err == nil {
			return provider.Result{
				Provider:  id,
				Succeeded: true,
				Attempts:  attempt,
				Duration:  r.nowFunc().Sub(start),
				Value:     value,
			}, nil
		}

		class := r.classify(err)
		lastClass = class
		lastErr = syerr.Wrap(err, provider.CodeFor(class),
			"invoking provider",
			syerr.FieldProvider(id.String()),
			syerr.FieldAttempt(attempt),
			syerr.FieldTaskID(task.ID),
		)

		if class == provider.ClassFatal || class == provider.ClassRateLimited {
			return r.failed(id, attempt, start, class), lastErr
		}

		if attempt < policy.MaxAttempts {
			if err := r.sleepFunc(ctx, backoff(policy.BaseDelay, attempt)); err != nil {
				lastErr = syerr.Wrap(err, syerr.CodeProviderTransientFailure,
					"cancelled during backoff",
					syerr.FieldProvider(id.String()),
					syerr.FieldAttempt(attempt),
				)
				return r.failed(id, attempt, start, provider.ClassTransient), lastErr
			}
		}
	}

	return r.failed(id, policy.MaxAttempts, start, lastClass), lastErr
}

func (r *Runner) invoke(ctx context.Context, timeout time.Duration, task provider.Task, exec provider.Executor) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return exec.Invoke(ctx, task)
}

func (r *Runner) failed(id provider.Identity, attempts int, start time.Time, class provider.Classification) provider.Result {
	return provider.Result{
		Provider:  id,
		Succeeded: false,
		Attempts:  attempts,
		Duration:  r.nowFunc().Sub(start),
		ErrorKind: class,
	}
}

// backoff computes the delay before the next attempt: baseDelay scaled by
// the attempt number, capped.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base * time.Duration(attempt)
	if cap := base * backoffCapFactor; d > cap {
		d = cap
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
