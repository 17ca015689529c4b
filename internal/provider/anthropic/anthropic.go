// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package anthropic

import (
	"context"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// DefaultModel is used when the canonical request carries no model hint.
const DefaultModel = "claude-sonnet-4-5"

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
	Model   string // optional, defaults to DefaultModel
}

// Provider implements provider.Provider using the Anthropic Messages API.
type Provider struct {
	client anthropicsdk.Client
	config Config
	model  string
}

// New creates a new Anthropic provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue,
			"anthropic: missing api_key in config", conduiterr.FieldProvider("anthropic"))
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
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		model:  model,
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

// Available checks credential presence only; it performs no network call.
func (p *Provider) Available(_ context.Context) bool {
	return p.config.APIKey != ""
}

func (p *Provider) ModelInfo() provider.ModelInfo {
	return provider.ModelInfo{
		ID:               p.model,
		Name:             "Claude",
		Provider:         "anthropic",
		MaxContextTokens: 200000,
		MaxOutputTokens:  32000,
	}
}

func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure,
			"anthropic: messages call failed")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, conduiterr.New(conduiterr.CodeProviderResponseInvalid,
			"anthropic: response contained no text content", conduiterr.FieldProvider("anthropic"))
	}

	return &provider.Response{
		Text:     text,
		Model:    string(msg.Model),
		Provider: "anthropic",
		Usage: provider.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// HealthCheck issues a minimal single-token completion as a liveness probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(p.model),
		MaxTokens: 1,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure, "anthropic: health check failed")
	}
	return nil
}

func (p *Provider) Close() error { return nil }

// buildParams converts a canonical request into Anthropic SDK MessageNewParams.
func (p *Provider) buildParams(req provider.Request) (anthropicsdk.MessageNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := int64(req.Options.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	if req.Options.Temperature != nil {
		params.Temperature = anthropicsdk.Float(float64(*req.Options.Temperature))
	}

	if len(req.Options.StopSequences) > 0 {
		params.StopSequences = req.Options.StopSequences
	}

	return params, nil
}

// convertMessages transforms canonical messages into Anthropic SDK MessageParam slices.
func convertMessages(msgs []provider.Message) ([]anthropicsdk.MessageParam, error) {
	var result []anthropicsdk.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case provider.MessageRoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		case provider.MessageRoleSystem:
			// System messages are handled via the top-level system param,
			// not as individual messages. Skip them here.
			continue
		default:
			return nil, conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid,
				"anthropic: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
