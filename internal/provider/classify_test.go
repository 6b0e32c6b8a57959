// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package provider_test

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want provider.Classification
	}{
		{"nil error", nil, provider.ClassNone},
		{
			"coded rate limit",
			syerr.New(syerr.CodeProviderRateLimited, "HTTP 429"),
			provider.ClassRateLimited,
		},
		{
			"coded fatal",
			syerr.New(syerr.CodeProviderFatalFailure, "malformed request"),
			provider.ClassFatal,
		},
		{
			"coded transient",
			syerr.New(syerr.CodeProviderTransientFailure, "HTTP 503"),
			provider.ClassTransient,
		},
		{
			"coded timeout",
			syerr.New(syerr.CodeProviderTimeout, "deadline"),
			provider.ClassTransient,
		},
		{"deadline exceeded", context.DeadlineExceeded, provider.ClassTransient},
		{"net timeout", timeoutErr{}, provider.ClassTransient},
		{"connection reset", syscall.ECONNRESET, provider.ClassTransient},
		{"connection refused", syscall.ECONNREFUSED, provider.ClassTransient},
		{"unknown error defaults to transient", errors.New("mystery"), provider.ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, provider.DefaultClassifier(tt.err))
		})
	}
}

func TestDefaultClassifier_WrappedCause(t *testing.T) {
	err := syerr.Wrap(syscall.ECONNRESET, syerr.CodeProviderTransientFailure, "invoke")
	assert.Equal(t, provider.ClassTransient, provider.DefaultClassifier(err))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   provider.Classification
	}{
		{http.StatusTooManyRequests, provider.ClassRateLimited},
		{http.StatusRequestTimeout, provider.ClassTransient},
		{http.StatusInternalServerError, provider.ClassTransient},
		{http.StatusBadGateway, provider.ClassTransient},
		{http.StatusServiceUnavailable, provider.ClassTransient},
		{http.StatusBadRequest, provider.ClassFatal},
		{http.StatusUnauthorized, provider.ClassFatal},
		{http.StatusForbidden, provider.ClassFatal},
		{http.StatusNotFound, provider.ClassFatal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, provider.ClassifyStatus(tt.status))
		})
	}
}

func TestCodeFor_RoundTripsThroughClassifier(t *testing.T) {
	for _, class := range []provider.Classification{
		provider.ClassRateLimited,
		provider.ClassTransient,
		provider.ClassFatal,
	} {
		err := syerr.New(provider.CodeFor(class), "boom")
		assert.Equal(t, class, provider.DefaultClassifier(err), "class %s", class)
	}
}
