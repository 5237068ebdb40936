//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package openai provides a judge backend over OpenAI-compatible chat APIs.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/goaleval/judge"
	"trpc.group/trpc-go/goaleval/log"
)

// providerConfig describes the environment variables one provider requires.
type providerConfig struct {
	// apiKeyName is the environment variable holding the API key.
	apiKeyName string
	// baseURLName is the environment variable holding the endpoint, empty when
	// the provider uses the library default.
	baseURLName string
	// baseURLRequired marks providers that cannot fall back to a default endpoint.
	baseURLRequired bool
	// requiredEnvs lists additional variables that must be present.
	requiredEnvs []string
}

var providerConfigs = map[string]providerConfig{
	"openai": {
		apiKeyName: "OPENAI_API_KEY",
	},
	"azure": {
		apiKeyName:      "AZURE_OPENAI_API_KEY",
		baseURLName:     "AZURE_OPENAI_ENDPOINT",
		baseURLRequired: true,
	},
	"watsonx": {
		apiKeyName:      "WATSONX_API_KEY",
		baseURLName:     "WATSONX_API_BASE",
		baseURLRequired: true,
		requiredEnvs:    []string{"WATSONX_PROJECT_ID"},
	},
}

// Backend implements judge.Backend over an OpenAI-compatible chat endpoint.
type Backend struct {
	client openai.Client
}

// New creates a judge backend for the given provider. Credentials are
// resolved from environment variables at setup time; a missing required
// variable is a fatal configuration error, not a call-time failure.
func New(provider string) (*Backend, error) {
	provider = strings.ToLower(provider)
	cfg, ok := providerConfigs[provider]
	if !ok {
		// Generic OpenAI-compatible provider: <PROVIDER>_API_KEY and an
		// optional <PROVIDER>_API_BASE.
		log.Warnf("Using generic provider configuration for %s", provider)
		prefix := strings.ToUpper(provider)
		cfg = providerConfig{
			apiKeyName:  prefix + "_API_KEY",
			baseURLName: prefix + "_API_BASE",
		}
	}
	apiKey := os.Getenv(cfg.apiKeyName)
	if apiKey == "" {
		return nil, &judge.ModelError{
			Message: fmt.Sprintf("%s environment variable is required for %s provider", cfg.apiKeyName, provider),
		}
	}
	clientOpts := []openaiopt.RequestOption{openaiopt.WithAPIKey(apiKey)}
	if cfg.baseURLName != "" {
		baseURL := os.Getenv(cfg.baseURLName)
		if baseURL == "" && cfg.baseURLRequired {
			return nil, &judge.ModelError{
				Message: fmt.Sprintf("%s environment variable is required for %s provider", cfg.baseURLName, provider),
			}
		}
		if baseURL != "" {
			clientOpts = append(clientOpts, openaiopt.WithBaseURL(baseURL))
		}
	}
	for _, env := range cfg.requiredEnvs {
		if os.Getenv(env) == "" {
			return nil, &judge.ModelError{
				Message: fmt.Sprintf("%s environment variable is required for %s provider", env, provider),
			}
		}
	}
	return &Backend{client: openai.NewClient(clientOpts...)}, nil
}

// Complete sends the prompt and returns the completion text.
func (b *Backend) Complete(ctx context.Context, model, prompt string, maxTokens int, temperature float64) (string, error) {
	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		Temperature:         openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("judge completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("judge completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
