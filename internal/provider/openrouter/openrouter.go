// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package openrouter

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

const baseURL = "https://openrouter.ai/api/v1"

// DefaultModel is used when the canonical request carries no model hint.
const DefaultModel = "anthropic/claude-sonnet-4-5"

// Config holds OpenRouter provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
	Model   string // optional, defaults to DefaultModel
}

// Provider implements provider.Provider using OpenRouter's OpenAI-compatible API.
type Provider struct {
	client openaisdk.Client
	config Config
	model  string
}

// New creates a new OpenRouter provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue,
			"openrouter: missing api_key in config", conduiterr.FieldProvider("openrouter"))
	}

	base := baseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		client: openaisdk.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(base),
		),
		config: cfg,
		model:  model,
	}, nil
}

func (p *Provider) Name() string { return "openrouter" }

// Available checks credential presence only; it performs no network call.
func (p *Provider) Available(_ context.Context) bool {
	return p.config.APIKey != ""
}

func (p *Provider) ModelInfo() provider.ModelInfo {
	return provider.ModelInfo{
		ID:               p.model,
		Name:             "OpenRouter",
		Provider:         "openrouter",
		MaxContextTokens: 200000,
		MaxOutputTokens:  16000,
	}
}

func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	msgs, err := convertMessages(req.Messages, req.SystemPrompt)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: msgs,
	}
	if req.Options.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.Options.MaxTokens))
	}
	if req.Options.Temperature != nil {
		params.Temperature = param.NewOpt(float64(*req.Options.Temperature))
	}
	if len(req.Options.StopSequences) > 0 {
		params.Stop = openaisdk.ChatCompletionNewParamsStopUnion{
			OfStringArray: req.Options.StopSequences,
		}
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure,
			"openrouter: chat completion failed")
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, conduiterr.New(conduiterr.CodeProviderResponseInvalid,
			"openrouter: response contained no choices", conduiterr.FieldProvider("openrouter"))
	}

	return &provider.Response{
		Text:     completion.Choices[0].Message.Content,
		Model:    completion.Model,
		Provider: "openrouter",
		Usage: provider.Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}

// HealthCheck issues a minimal single-token completion as a liveness probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:               shared.ChatModel(p.model),
		Messages:            []openaisdk.ChatCompletionMessageParamUnion{openaisdk.UserMessage("ping")},
		MaxCompletionTokens: param.NewOpt(int64(1)),
	})
	if err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure, "openrouter: health check failed")
	}
	return nil
}

func (p *Provider) Close() error { return nil }

// convertMessages transforms canonical messages into OpenAI-compatible
// message params. The system prompt is prepended if present.
func convertMessages(msgs []provider.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	var result []openaisdk.ChatCompletionMessageParamUnion

	if systemPrompt != "" {
		result = append(result, openaisdk.SystemMessage(systemPrompt))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, openaisdk.UserMessage(msg.Content))
		case provider.MessageRoleAssistant:
			result = append(result, openaisdk.AssistantMessage(msg.Content))
		case provider.MessageRoleSystem:
			result = append(result, openaisdk.SystemMessage(msg.Content))
		default:
			return nil, conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid,
				"openrouter: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
