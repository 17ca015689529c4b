// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// DefaultModel is used when the canonical request carries no model hint.
const DefaultModel = "gemini-2.5-pro"

// Config holds Google provider configuration.
type Config struct {
	APIKey string
	Model  string // optional, defaults to DefaultModel
}

// Provider implements provider.Provider using the Google Gemini API.
type Provider struct {
	client *genai.Client
	config Config
	model  string
}

// New creates a new Google provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conduiterr.New(conduiterr.CodeConfigValidateInvalidValue,
			"google: missing api_key in config", conduiterr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure, "google: creating client")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		client: client,
		config: cfg,
		model:  model,
	}, nil
}

func (p *Provider) Name() string { return "google" }

// Available checks credential presence only; it performs no network call.
func (p *Provider) Available(_ context.Context) bool {
	return p.config.APIKey != ""
}

func (p *Provider) ModelInfo() provider.ModelInfo {
	return provider.ModelInfo{
		ID:               p.model,
		Name:             "Gemini",
		Provider:         "google",
		MaxContextTokens: 1000000,
		MaxOutputTokens:  65536,
	}
}

func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	result, err := p.client.Models.GenerateContent(ctx, model, contents, buildConfig(req))
	if err != nil {
		return nil, conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure,
			"google: generate content failed")
	}

	text := result.Text()
	if text == "" {
		return nil, conduiterr.New(conduiterr.CodeProviderResponseInvalid,
			"google: response contained no text", conduiterr.FieldProvider("google"))
	}

	resp := &provider.Response{
		Text:     text,
		Model:    model,
		Provider: "google",
	}
	if result.UsageMetadata != nil {
		resp.Usage = provider.Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
		}
	}
	return resp, nil
}

// HealthCheck issues a minimal single-token generation as a liveness probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: "ping"}}},
	}
	_, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	})
	if err != nil {
		return conduiterr.Wrapf(err, conduiterr.CodeProviderUpstreamFailure, "google: health check failed")
	}
	return nil
}

func (p *Provider) Close() error { return nil }

// buildConfig converts a canonical request into a genai.GenerateContentConfig.
func buildConfig(req provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Options.Temperature != nil {
		cfg.Temperature = genai.Ptr(*req.Options.Temperature)
	}

	if req.Options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Options.MaxTokens)
	}

	if len(req.Options.StopSequences) > 0 {
		cfg.StopSequences = req.Options.StopSequences
	}

	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.SystemPrompt},
			},
		}
	}

	return cfg
}

// convertMessages transforms canonical messages into genai.Content slices.
// System messages are excluded (handled via SystemInstruction in buildConfig).
func convertMessages(msgs []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case provider.MessageRoleAssistant:
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case provider.MessageRoleSystem:
			continue
		default:
			return nil, conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid,
				"google: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}
