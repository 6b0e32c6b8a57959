// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

// Package state captures and restores task execution context across a
// provider switch. Without this seam, switching mid-task silently drops the
// context the first provider accumulated (files already touched, partial
// output markers), duplicating or corrupting work on resume.
//
// Both operations are pure data transforms with no I/O, and Restore is
// idempotent: restoring the same snapshot twice yields the same task.
package state

import (
	"encoding/json"

	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

// Snapshot is a serializable copy of the context a provider switch must not
// lose. It holds no references into the live task; callers may persist it
// and reload it in a later process if they choose.
type Snapshot struct {
	TaskID   string         `json:"task_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Capture produces a snapshot of the task's metadata. The metadata is
// deep-copied through JSON so later mutation of the live task cannot reach
// into the snapshot, and so the snapshot is guaranteed serializable.
func Capture(task provider.Task) (Snapshot, error) {
	if task.ID == "" {
		return Snapshot{}, syerr.New(syerr.CodeStateCaptureInvalid, "task has no ID")
	}

	meta, err := deepCopy(task.Metadata)
	if err != nil {
		return Snapshot{}, syerr.Wrap(err, syerr.CodeStateCaptureInvalid,
			"task metadata is not serializable", syerr.FieldTaskID(task.ID))
	}

	return Snapshot{TaskID: task.ID, Metadata: meta}, nil
}

// Restore merges a snapshot back into a task for the next provider. Snapshot
// entries overwrite same-keyed task metadata; task keys absent from the
// snapshot are kept. The input task is not mutated.
func Restore(snap Snapshot, task provider.Task) (provider.Task, error) {
	if snap.TaskID == "" {
		return provider.Task{}, syerr.New(syerr.CodeStateRestoreInvalid, "snapshot has no task ID")
	}
	if snap.TaskID != task.ID {
		return provider.Task{}, syerr.New(syerr.CodeStateRestoreInvalid,
			"snapshot belongs to a different task",
			syerr.FieldTaskID(task.ID),
			syerr.Field("snapshot_task_id", snap.TaskID),
		)
	}

	base, err := deepCopy(task.Metadata)
	if err != nil {
		return provider.Task{}, syerr.Wrap(err, syerr.CodeStateRestoreInvalid,
			"task metadata is not serializable", syerr.FieldTaskID(task.ID))
	}
	overlay, err := deepCopy(snap.Metadata)
	if err != nil {
		return provider.Task{}, syerr.Wrap(err, syerr.CodeStateRestoreInvalid,
			"snapshot metadata is not serializable", syerr.FieldTaskID(task.ID))
	}

	merged := base
	if merged == nil && overlay != nil {
		merged = make(map[string]any, len(overlay))
	}
	for k, v := range overlay {
		merged[k] = v
	}

	restored := task
	restored.Metadata = merged
	return restored, nil
}

// deepCopy round-trips a metadata map through JSON. nil stays nil.
func deepCopy(meta map[string]any) (map[string]any, error) {
	if meta == nil {
		return nil, nil
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
