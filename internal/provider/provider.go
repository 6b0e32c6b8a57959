// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package provider defines the closed set of provider identities and the
// contracts the orchestrator consumes: an Executor that performs a task and
// a Probe that answers a cheap health question. The orchestrator never knows
// how either does its work, only the success/failure/classification contract.
package provider

import (
	"context"
	"time"

	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// Identity identifies one backing service. The set is closed: unknown names
// are rejected at configuration load, not deep in the switch logic.
type Identity string

const (
	Claude Identity = "claude"
	Groq   Identity = "groq"
	Ollama Identity = "ollama"
	OpenAI Identity = "openai"
)

// Identities returns all known provider identities.
func Identities() []Identity {
	return []Identity{Claude, Groq, Ollama, OpenAI}
}

// ParseIdentity validates a provider name from configuration.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(s) {
	case Claude, Groq, Ollama, OpenAI:
		return Identity(s), nil
	default:
		return "", syerr.New(
			syerr.CodeProviderUnknown,
			"unknown provider: "+s,
			syerr.FieldProvider(s),
		)
	}
}

func (i Identity) String() string {
	return string(i)
}

// Task is a caller-supplied unit of work. The orchestrator reads it and
// hands it to executors; it never mutates the caller's copy. Payload is
// opaque; Metadata carries whatever context the executor needs across a
// provider switch (in-progress file lists, partial output markers).
type Task struct {
	ID       string
	Payload  any
	Metadata map[string]any
}

// Executor performs a task against one provider. Errors returned must be
// classifiable (carry an error code or a shape DefaultClassifier understands).
type Executor interface {
	Invoke(ctx context.Context, task Task) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task Task) (any, error)

func (f ExecutorFunc) Invoke(ctx context.Context, task Task) (any, error) {
	return f(ctx, task)
}

// ProbeResult is the optional rate-limit headroom a probe reports.
// Nil fields mean the provider did not expose the information.
type ProbeResult struct {
	RateLimitRemaining *int
	RateLimitResetAt   *time.Time
}

// Probe answers whether a provider is reachable. It must be cheap and
// complete well within the health-check interval; the monitor enforces a
// hard timeout. An error return means unavailable.
type Probe interface {
	Check(ctx context.Context) (ProbeResult, error)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context) (ProbeResult, error)

func (f ProbeFunc) Check(ctx context.Context) (ProbeResult, error) {
	return f(ctx)
}

// Result reports the outcome of one orchestrated execution.
// Immutable once returned.
type Result struct {
	Provider     Identity
	Succeeded    bool
	FallbackUsed bool
	Attempts     int
	Duration     time.Duration
	Value        any
	ErrorKind    Classification
}

// AttemptRecord is one entry in an exhaustion report: which provider was
// tried and how its failure was classified.
type AttemptRecord struct {
	Provider Identity       `json:"provider"`
	Kind     Classification `json:"kind"`
}
