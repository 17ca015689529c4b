// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package openai

import (
	"testing"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages_PrependsSystemPrompt(t *testing.T) {
	msgs, err := convertMessages([]provider.Message{
		{Role: provider.MessageRoleUser, Content: "hello"},
		{Role: provider.MessageRoleAssistant, Content: "hi"},
	}, "be terse")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}

func TestConvertMessages_UnsupportedRole(t *testing.T) {
	_, err := convertMessages([]provider.Message{
		{Role: provider.MessageRole("tool"), Content: "x"},
	}, "")
	require.Error(t, err)
	assert.True(t, conduiterr.HasCode(err, conduiterr.CodeProviderRequestInvalid))
}

func TestBuildParams_DefaultsAndOverrides(t *testing.T) {
	p, err := New(Config{APIKey: "test-key-not-real"})
	require.NoError(t, err)

	temp := float32(0.5)
	params, err := p.buildParams(provider.Request{
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
		Options: provider.Options{
			Temperature:   &temp,
			MaxTokens:     128,
			StopSequences: []string{"END"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, string(params.Model))
	assert.Equal(t, int64(128), params.MaxCompletionTokens.Value)
	assert.InDelta(t, 0.5, params.Temperature.Value, 1e-6)
	assert.Equal(t, []string{"END"}, params.Stop.OfStringArray)

	params, err = p.buildParams(provider.Request{
		Model:    "gpt-4.1-nano",
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-nano", string(params.Model))
}
