// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package openai_test

import (
	"context"
	"testing"

	"github.com/conduit-dev/conduit/internal/provider"
	"github.com/conduit-dev/conduit/internal/provider/openai"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface satisfaction check.
var _ provider.Provider = (*openai.Provider)(nil)

func TestOpenAIProvider_Name(t *testing.T) {
	p := mustNewProvider(t)
	assert.Equal(t, "openai", p.Name())
}

func TestOpenAIProvider_MissingAPIKey(t *testing.T) {
	_, err := openai.New(openai.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeConfigValidateInvalidValue))
}

func TestOpenAIProvider_Available(t *testing.T) {
	p := mustNewProvider(t)
	assert.True(t, p.Available(context.Background()))
}

func TestOpenAIProvider_ModelInfo(t *testing.T) {
	p := mustNewProvider(t)
	info := p.ModelInfo()
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, openai.DefaultModel, info.ID)
	assert.Greater(t, info.MaxContextTokens, 0)
}

func TestOpenAIProvider_ModelOverride(t *testing.T) {
	p, err := openai.New(openai.Config{APIKey: "test-key-not-real", Model: "gpt-4.1-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", p.ModelInfo().ID)
}

func TestOpenAIProvider_Close(t *testing.T) {
	p := mustNewProvider(t)
	assert.NoError(t, p.Close())
}

func mustNewProvider(t *testing.T) *openai.Provider {
	t.Helper()
	p, err := openai.New(openai.Config{
		APIKey: "test-key-not-real",
	})
	require.NoError(t, err)
	return p
}
