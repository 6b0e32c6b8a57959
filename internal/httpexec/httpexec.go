// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package httpexec adapts an operator-configured HTTP endpoint to the
// Executor and Probe contracts. It is deliberately generic: no
// provider-specific SDKs, auth flows, or payload shapes. The endpoint is
// expected to accept POST {base}/invoke and answer GET {base}/status,
// optionally exposing X-RateLimit-* headers on the status response.
package httpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

const (
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// Client is an HTTP-backed Executor and Probe for one provider endpoint.
type Client struct {
	id     provider.Identity
	base   string
	apiKey string
	http   *http.Client
}

var (
	_ provider.Executor = (*Client)(nil)
	_ provider.Probe    = (*Client)(nil)
)

// New creates a client for one provider endpoint. A nil httpClient uses a
// default with no client-side timeout; the runner and monitor own deadlines
// via context.
func New(id provider.Identity, endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		id:     id,
		base:   strings.TrimRight(endpoint, "/"),
		apiKey: apiKey,
		http:   httpClient,
	}
}

// invokeRequest is the wire shape posted to {base}/invoke.
type invokeRequest struct {
	ID       string         `json:"id"`
	Payload  any            `json:"payload,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Invoke posts the task to the endpoint and returns the decoded JSON body.
// Non-2xx responses become coded errors classified by status: 429 is
// rate-limited, 5xx and timeouts are transient, other 4xx are fatal.
func (c *Client) Invoke(ctx context.Context, task provider.Task) (any, error) {
	raw, err := json.Marshal(invokeRequest{ID: task.ID, Payload: task.Payload, Metadata: task.Metadata})
	if err != nil {
		return nil, syerr.Wrap(err, syerr.CodeProviderFatalFailure,
			"encoding task", syerr.FieldProvider(c.id.String()), syerr.FieldTaskID(task.ID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/invoke", bytes.NewReader(raw))
	if err != nil {
		return nil, syerr.Wrap(err, syerr.CodeProviderFatalFailure,
			"building invoke request", syerr.FieldProvider(c.id.String()))
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, syerr.Wrap(err, syerr.CodeProviderTransientFailure,
			"invoking endpoint", syerr.FieldProvider(c.id.String()), syerr.FieldTaskID(task.ID))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		class := provider.ClassifyStatus(resp.StatusCode)
		return nil, syerr.New(provider.CodeFor(class),
			"endpoint returned HTTP "+strconv.Itoa(resp.StatusCode),
			syerr.FieldProvider(c.id.String()),
			syerr.FieldTaskID(task.ID),
			syerr.Field("status", resp.StatusCode),
		)
	}

	var value any
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		if err == io.EOF {
			return nil, nil // empty body is a valid success
		}
		return nil, syerr.Wrap(err, syerr.CodeProviderTransientFailure,
			"decoding response", syerr.FieldProvider(c.id.String()), syerr.FieldTaskID(task.ID))
	}
	return value, nil
}

// Check issues the lightweight status request and reads rate-limit headroom
// headers when the endpoint exposes them.
func (c *Client) Check(ctx context.Context) (provider.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/status", nil)
	if err != nil {
		return provider.ProbeResult{}, syerr.Wrap(err, syerr.CodeProviderProbeFailure,
			"building probe request", syerr.FieldProvider(c.id.String()))
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return provider.ProbeResult{}, syerr.Wrap(err, syerr.CodeProviderProbeFailure,
			"probing endpoint", syerr.FieldProvider(c.id.String()))
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return provider.ProbeResult{}, syerr.New(syerr.CodeProviderProbeFailure,
			"status endpoint returned HTTP "+strconv.Itoa(resp.StatusCode),
			syerr.FieldProvider(c.id.String()),
			syerr.Field("status", resp.StatusCode),
		)
	}

	return provider.ProbeResult{
		RateLimitRemaining: parseRemaining(resp.Header.Get(headerRateLimitRemaining)),
		RateLimitResetAt:   parseReset(resp.Header.Get(headerRateLimitReset)),
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func parseRemaining(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// parseReset accepts either Unix seconds or an RFC 3339 timestamp.
func parseReset(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		t := time.Unix(secs, 0).UTC()
		return &t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return nil
}
