// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// DefaultModel is used when the canonical request carries no model hint.
const DefaultModel = "gpt-4.1"

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
	Model   string // optional, defaults to DefaultModel
}

// Provider implements provider.Provider using the OpenAI Chat Completions API.
type Provider struct {
	client openaisdk.Client
	config Config
	model  string
}

// New creates a new OpenAI provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue,
			"openai: missing api_key in config", conduiterr.FieldProvider("openai"))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		client: openaisdk.NewClient(opts...),
		config: cfg,
		model:  model,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

// Available checks credential presence only; it performs no network call.
func (p *Provider) Available(_ context.Context) bool {
	return p.config.APIKey != ""
}

func (p *Provider) ModelInfo() provider.ModelInfo {
	return provider.ModelInfo{
		ID:               p.model,
		Name:             "GPT",
		Provider:         "openai",
		MaxContextTokens: 128000,
		MaxOutputTokens:  32768,
	}
}

func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure,
			"openai: chat completion failed")
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, conduiterr.New(conduiterr.CodeProviderResponseInvalid,
			"openai: response contained no choices", conduiterr.FieldProvider("openai"))
	}

	return &provider.Response{
		Text:     completion.Choices[0].Message.Content,
		Model:    completion.Model,
		Provider: "openai",
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
		return conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure, "openai: health check failed")
	}
	return nil
}

func (p *Provider) Close() error { return nil }

// buildParams converts a canonical request into OpenAI SDK ChatCompletionNewParams.
func (p *Provider) buildParams(req provider.Request) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages, req.SystemPrompt)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
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

	return params, nil
}

// convertMessages transforms canonical messages into OpenAI SDK message param
// slices. The system prompt is prepended as a system message if present.
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
				"openai: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
