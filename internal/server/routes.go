// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package server

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/switchyard-dev/switchyard/internal/orchestrator"
	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
	"github.com/switchyard-dev/switchyard/pkg/health"
)

// Orchestrator is the slice of the orchestrator the server needs: read-only
// observability plus the two manual switch operations.
type Orchestrator interface {
	Active() provider.Identity
	Primary() provider.Identity
	HealthTable() map[provider.Identity]health.Snapshot
	Events() []orchestrator.SwitchEvent
	DrainEvents() ([]orchestrator.SwitchEvent, bool)
	FallbackToNext() (provider.Identity, error)
	ReturnToPrimary() (provider.Identity, error)
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "orchestrator-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "Orchestrator status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-provider-health",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "Per-provider health snapshots",
		Tags:        []string{"providers"},
	}, s.handleListProviders)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-switch-events",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "Switch event history",
		Tags:        []string{"events"},
	}, s.handleListEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "drain-switch-events",
		Method:      http.MethodPost,
		Path:        "/api/v1/events/drain",
		Summary:     "Drain the switch event history",
		Tags:        []string{"events"},
	}, s.handleDrainEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "manual-fallback",
		Method:      http.MethodPost,
		Path:        "/api/v1/failover",
		Summary:     "Manually fall back to the next provider",
		Tags:        []string{"providers"},
	}, s.handleFallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "manual-return",
		Method:      http.MethodPost,
		Path:        "/api/v1/return",
		Summary:     "Manually return to the primary provider",
		Tags:        []string{"providers"},
	}, s.handleReturn)
}

// --- Request/Response types for huma ---

// StatusBody is the aggregate view a reporting collaborator polls.
type StatusBody struct {
	Active         string            `json:"active"`
	Primary        string            `json:"primary"`
	FallbackActive bool              `json:"fallback_active"`
	Providers      []health.Snapshot `json:"providers"`
	PendingEvents  int               `json:"pending_events"`
}

type statusOutput struct {
	Body StatusBody
}

type listProvidersOutput struct {
	Body struct {
		Providers []health.Snapshot `json:"providers"`
	}
}

type listEventsOutput struct {
	Body struct {
		Events []orchestrator.SwitchEvent `json:"events"`
	}
}

type drainEventsOutput struct {
	Body struct {
		Events     []orchestrator.SwitchEvent `json:"events"`
		Overflowed bool                       `json:"overflowed"`
	}
}

type switchOutput struct {
	Body struct {
		Active string `json:"active"`
	}
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	active := s.orch.Active()
	primary := s.orch.Primary()

	out := &statusOutput{}
	out.Body = StatusBody{
		Active:         active.String(),
		Primary:        primary.String(),
		FallbackActive: active != primary,
		Providers:      sortedSnapshots(s.orch.HealthTable()),
		PendingEvents:  len(s.orch.Events()),
	}
	return out, nil
}

func (s *Server) handleListProviders(_ context.Context, _ *struct{}) (*listProvidersOutput, error) {
	out := &listProvidersOutput{}
	out.Body.Providers = sortedSnapshots(s.orch.HealthTable())
	return out, nil
}

func (s *Server) handleListEvents(_ context.Context, _ *struct{}) (*listEventsOutput, error) {
	out := &listEventsOutput{}
	out.Body.Events = s.orch.Events()
	return out, nil
}

func (s *Server) handleDrainEvents(_ context.Context, _ *struct{}) (*drainEventsOutput, error) {
	events, overflowed := s.orch.DrainEvents()
	out := &drainEventsOutput{}
	out.Body.Events = events
	out.Body.Overflowed = overflowed
	return out, nil
}

func (s *Server) handleFallback(_ context.Context, _ *struct{}) (*switchOutput, error) {
	next, err := s.orch.FallbackToNext()
	if err != nil {
		if syerr.IsNotFound(err) {
			return nil, huma.Error409Conflict("no fallback provider remaining", err)
		}
		return nil, huma.Error500InternalServerError("switching provider", err)
	}

	out := &switchOutput{}
	out.Body.Active = next.String()
	return out, nil
}

func (s *Server) handleReturn(_ context.Context, _ *struct{}) (*switchOutput, error) {
	active, err := s.orch.ReturnToPrimary()
	if err != nil {
		return nil, huma.Error500InternalServerError("returning to primary", err)
	}

	out := &switchOutput{}
	out.Body.Active = active.String()
	return out, nil
}

func sortedSnapshots(table map[provider.Identity]health.Snapshot) []health.Snapshot {
	out := make([]health.Snapshot, 0, len(table))
	for _, snap := range table {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
