// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/conduit-dev/conduit/internal/provider"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
	"github.com/conduit-dev/conduit/pkg/health"
)

// RegisterService sets the prediction service and registers REST routes.
func (s *Server) RegisterService(svc PredictionService) {
	s.service = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "create-prediction",
		Method:      http.MethodPost,
		Path:        "/v1/predictions",
		Summary:     "Run an inference request through the failover chain",
		Tags:        []string{"predictions"},
	}, s.handleCreatePrediction)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/v1/providers",
		Summary:     "List providers with availability and failure counts",
		Tags:        []string{"providers"},
	}, s.handleListProviders)

	huma.Register(s.api, huma.Operation{
		OperationID: "check-providers",
		Method:      http.MethodPost,
		Path:        "/v1/providers/health",
		Summary:     "Probe every provider and report health",
		Tags:        []string{"providers"},
	}, s.handleCheckProviders)
}

// --- Request/Response types for huma ---

type chatMessage struct {
	Role    string `json:"role" enum:"user,assistant,system" doc:"Message author role"`
	Content string `json:"content" minLength:"1" doc:"Message text"`
}

type predictionOptions struct {
	Temperature   *float32 `json:"temperature,omitempty" doc:"Sampling temperature, 0 to 2"`
	MaxTokens     int      `json:"max_tokens,omitempty" doc:"Upper bound on generated tokens"`
	StopSequences []string `json:"stop_sequences,omitempty" doc:"Sequences that end generation"`
}

type createPredictionInput struct {
	Body struct {
		Model        string             `json:"model,omitempty" doc:"Model override; empty uses each provider's default"`
		SystemPrompt string             `json:"system_prompt,omitempty" doc:"System prompt"`
		Messages     []chatMessage      `json:"messages" minItems:"1" doc:"Conversation messages"`
		Options      *predictionOptions `json:"options,omitempty"`
	}
}

type createPredictionOutput struct {
	Body struct {
		Text      string             `json:"text" doc:"Generated text"`
		Model     string             `json:"model" doc:"Model that produced the text"`
		Provider  string             `json:"provider" doc:"Provider that served the request"`
		Usage     provider.Usage     `json:"usage"`
		RequestID string             `json:"request_id"`
		Attempts  []provider.Attempt `json:"attempts" doc:"Per-provider attempt trail"`
	}
}

type listProvidersOutput struct {
	Body struct {
		Providers []health.Status `json:"providers"`
	}
}

type checkProvidersOutput struct {
	Body struct {
		Results map[string]bool `json:"results" doc:"Health per provider id"`
	}
}

// --- Handlers ---

func (s *Server) handleCreatePrediction(ctx context.Context, input *createPredictionInput) (*createPredictionOutput, error) {
	if s.service == nil {
		return nil, huma.Error503ServiceUnavailable("orchestrator not configured")
	}

	req := provider.Request{
		Model:        input.Body.Model,
		SystemPrompt: input.Body.SystemPrompt,
	}
	for _, m := range input.Body.Messages {
		req.Messages = append(req.Messages, provider.Message{
			Role:    provider.MessageRole(m.Role),
			Content: m.Content,
		})
	}
	if opts := input.Body.Options; opts != nil {
		req.Options = provider.Options{
			Temperature:   opts.Temperature,
			MaxTokens:     opts.MaxTokens,
			StopSequences: opts.StopSequences,
		}
	}

	resp, err := s.service.GetPrediction(ctx, req)
	if err != nil {
		return nil, asHumaError(err)
	}

	out := &createPredictionOutput{}
	out.Body.Text = resp.Text
	out.Body.Model = resp.Model
	out.Body.Provider = resp.Provider
	out.Body.Usage = resp.Usage
	out.Body.RequestID = resp.RequestID
	out.Body.Attempts = resp.Attempts
	return out, nil
}

func (s *Server) handleListProviders(_ context.Context, _ *struct{}) (*listProvidersOutput, error) {
	if s.service == nil {
		return nil, huma.Error503ServiceUnavailable("orchestrator not configured")
	}

	out := &listProvidersOutput{}
	out.Body.Providers = s.service.ProviderStatus()
	return out, nil
}

func (s *Server) handleCheckProviders(ctx context.Context, _ *struct{}) (*checkProvidersOutput, error) {
	if s.service == nil {
		return nil, huma.Error503ServiceUnavailable("orchestrator not configured")
	}

	out := &checkProvidersOutput{}
	out.Body.Results = s.service.HealthCheckAll(ctx)
	return out, nil
}

// asHumaError maps an orchestrator error to the huma error carrying the
// right HTTP status. The terminal all-exhausted error surfaces as 503 so
// clients can back off and retry.
func asHumaError(err error) error {
	msg := err.Error()

	switch conduiterr.HTTPStatus(err) {
	case http.StatusBadRequest:
		return huma.Error400BadRequest(msg)
	case http.StatusNotFound:
		return huma.Error404NotFound(msg)
	case http.StatusBadGateway:
		return huma.Error502BadGateway(msg)
	case http.StatusServiceUnavailable:
		return huma.Error503ServiceUnavailable(msg)
	default:
		return huma.Error500InternalServerError("prediction failed", err)
	}
}
