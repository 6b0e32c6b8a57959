// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package errors is the coded-error facade for switchyard. Every error the
// module produces carries a machine-readable Code whose last dot segment is
// the classification reason; the helpers below classify without string
// matching at call sites.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeProviderUnknown          Code = "provider.identity.unknown"
	CodeProviderNotFound         Code = "provider.registry.not_found"
	CodeProviderRateLimited      Code = "provider.execute.rate_limited"
	CodeProviderTransientFailure Code = "provider.execute.transient_failure"
	CodeProviderFatalFailure     Code = "provider.execute.fatal_failure"
	CodeProviderTimeout          Code = "provider.execute.timeout"
	CodeProviderExhausted        Code = "provider.chain.exhausted"
	CodeProviderProbeFailure     Code = "provider.probe.failure"

	CodeStateCaptureInvalid Code = "state.capture.invalid_input"
	CodeStateRestoreInvalid Code = "state.restore.invalid_input"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldAttempt(value int) Attr {
	return Field("attempt", value)
}

func FieldTaskID(value string) Attr {
	return Field("task_id", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// FieldsOf returns the structured context of an error, or nil.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsRateLimited reports whether the error is a provider rate-limit signal.
func IsRateLimited(err error) bool {
	return reason(CodeOf(err)) == "rate_limited"
}

// IsTransient reports whether the error is retryable on another provider.
func IsTransient(err error) bool {
	r := reason(CodeOf(err))
	return r == "transient_failure" || r == "timeout"
}

// IsFatal reports whether the error is fatal for the task itself,
// independent of which provider executes it.
func IsFatal(err error) bool {
	return reason(CodeOf(err)) == "fatal_failure"
}

// IsExhausted reports whether every provider in the chain was tried and failed.
func IsExhausted(err error) bool {
	return reason(CodeOf(err)) == "exhausted"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

// HTTPStatus maps an error to the status the observability API responds with.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsRateLimited(err):
		return http.StatusTooManyRequests
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	case IsTransient(err), IsExhausted(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
