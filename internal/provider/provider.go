// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package provider

import (
	"context"
	"time"

	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// Provider is the adapter contract every upstream AI service implements.
// Adapters translate the canonical request into a provider-specific call
// and the provider-specific response back into the canonical shape; they
// hold no orchestration state.
type Provider interface {
	// Name returns the stable identifier matching the registry's id.
	Name() string

	// Available reports whether the provider is locally usable
	// (credential present). It performs no network call.
	Available(ctx context.Context) bool

	// Complete sends one canonical request upstream and returns the
	// canonical response. Any upstream fault is returned as an error
	// carrying CodeProviderUpstreamFailure or CodeProviderResponseInvalid.
	Complete(ctx context.Context, req Request) (*Response, error)

	// HealthCheck is a cheap liveness probe. A nil error means healthy.
	HealthCheck(ctx context.Context) error

	// ModelInfo describes the model this provider serves by default.
	ModelInfo() ModelInfo

	// Close releases any held resources.
	Close() error
}

// Request is the canonical inference request passed unchanged to whichever
// adapter is selected. It carries no provider-specific fields.
type Request struct {
	Model        string    `json:"model,omitempty"`
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Options      Options   `json:"options"`
}

// Options contains model configuration.
type Options struct {
	Temperature   *float32 `json:"temperature,omitempty"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// Message represents a conversation message.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Validate checks the canonical envelope shape. A validation failure is
// fatal for the request: it is surfaced immediately and never retried
// against any provider.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return conduiterr.New(conduiterr.CodeProviderRequestInvalid, "request has no messages")
	}
	for i, msg := range r.Messages {
		switch msg.Role {
		case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		default:
			return conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid, "message %d has unsupported role %q", i, msg.Role)
		}
		if msg.Content == "" {
			return conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid, "message %d has empty content", i)
		}
	}
	if r.Options.MaxTokens < 0 {
		return conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid, "max_tokens must be non-negative, got %d", r.Options.MaxTokens)
	}
	if t := r.Options.Temperature; t != nil && (*t < 0 || *t > 2) {
		return conduiterr.Errorf(conduiterr.CodeProviderRequestInvalid, "temperature must be in [0, 2], got %g", *t)
	}
	return nil
}

// Response is the canonical result shape every adapter produces, regardless
// of upstream format, so callers never branch on provider identity.
type Response struct {
	Text      string    `json:"text"`
	Model     string    `json:"model"`
	Provider  string    `json:"provider"`
	Usage     Usage     `json:"usage"`
	RequestID string    `json:"request_id,omitempty"`
	Attempts  []Attempt `json:"attempts,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Attempt records one provider try during a single request. It is
// ephemeral: surfaced in response metadata and logs, never persisted.
type Attempt struct {
	Provider string        `json:"provider"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Outcome classifies the result of one attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// WithName returns p under a caller-chosen registry id. Config entries
// carry unique user-chosen names while adapters report their type, so
// two entries of the same type need distinct ids.
func WithName(name string, p Provider) Provider {
	if name == "" || name == p.Name() {
		return p
	}
	return &named{Provider: p, name: name}
}

type named struct {
	Provider
	name string
}

func (n *named) Name() string { return n.name }

// ModelInfo describes a provider's default model.
type ModelInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Provider         string `json:"provider"`
	MaxContextTokens int    `json:"max_context_tokens"`
	MaxOutputTokens  int    `json:"max_output_tokens"`
}
