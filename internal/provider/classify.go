// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// Classification is the failure taxonomy the orchestrator switches on.
type Classification string

const (
	// ClassNone means no failure (successful result).
	ClassNone Classification = ""
	// ClassRateLimited means the provider refused on quota grounds; retrying
	// the same provider is pointless, switch instead.
	ClassRateLimited Classification = "rate-limited"
	// ClassTransient means the failure may clear on retry or on another
	// provider (timeout, 5xx, connection reset).
	ClassTransient Classification = "transient"
	// ClassFatal means the task itself is broken (validation, auth,
	// malformed request); no provider will succeed.
	ClassFatal Classification = "fatal"
)

// Classifier maps a raw executor error to a Classification. It is the seam
// the orchestrator relies on: pure, and testable independent of any
// concrete executor.
type Classifier func(error) Classification

// DefaultClassifier classifies coded errors by their code reason, then falls
// back to wire-level inspection for uncoded errors. Unknown errors classify
// as transient so an unrecognized failure gets a chance on the next provider
// rather than killing the task.
func DefaultClassifier(err error) Classification {
	if err == nil {
		return ClassNone
	}

	switch {
	case syerr.IsRateLimited(err):
		return ClassRateLimited
	case syerr.IsFatal(err):
		return ClassFatal
	case syerr.IsTransient(err):
		return ClassTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return ClassTransient
	}

	return ClassTransient
}

// ClassifyStatus maps an HTTP status code to a Classification. Used by HTTP
// executor adapters; 2xx must not be passed in.
func ClassifyStatus(status int) Classification {
	switch {
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status == http.StatusRequestTimeout:
		return ClassTransient
	case status >= 500:
		return ClassTransient
	default:
		return ClassFatal
	}
}

// CodeFor returns the error code matching a classification, for adapters
// that construct coded errors from raw failures.
func CodeFor(c Classification) syerr.Code {
	switch c {
	case ClassRateLimited:
		return syerr.CodeProviderRateLimited
	case ClassFatal:
		return syerr.CodeProviderFatalFailure
	default:
		return syerr.CodeProviderTransientFailure
	}
}
