// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Switchyard Contributors

package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-dev/switchyard/internal/provider"
	syerr "github.com/switchyard-dev/switchyard/pkg/errors"
)

func TestParseIdentity_Known(t *testing.T) {
	for _, id := range provider.Identities() {
		got, err := provider.ParseIdentity(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestParseIdentity_Unknown(t *testing.T) {
	tests := []string{"", "copilot", "CLAUDE", "claude ", "groq/llama"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := provider.ParseIdentity(name)
			require.Error(t, err)
			assert.True(t, syerr.HasCode(err, syerr.CodeProviderUnknown))
		})
	}
}
