//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package judge provides judge model invocation with bounded retries.
package judge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"trpc.group/trpc-go/goaleval/internal/retry"
	"trpc.group/trpc-go/goaleval/log"
)

const (
	// MaxRetryAttempts bounds judge model invocations per evaluation.
	MaxRetryAttempts = 3
	// RetryDelay is the fixed sleep between failed attempts.
	RetryDelay = 2 * time.Second
	// DefaultTimeout bounds a single judge model call.
	DefaultTimeout = 300 * time.Second
	// verdictMaxTokens is all the judge needs to answer 1 or 0.
	verdictMaxTokens = 10
)

// AnswerCorrectnessPrompt asks the judge for a binary correctness verdict.
const AnswerCorrectnessPrompt = `You are an expert evaluator assessing the correctness of an answer.

Question:
%s

Expected Answer:
%s

Actual Answer:
%s

Determine whether the actual answer conveys the same meaning as the expected answer.
Respond with a single digit: 1 if the actual answer is correct, 0 if it is not.
Do not provide any explanation.`

// verdictPattern matches a standalone 0 or 1 token in free text.
var verdictPattern = regexp.MustCompile(`\b[01]\b`)

// ModelError reports a judge model failure after retries were exhausted or a
// misconfigured judge backend.
type ModelError struct {
	// Message describes the failure.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("judge model error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("judge model error: %s", e.Message)
}

// Unwrap exposes the underlying cause.
func (e *ModelError) Unwrap() error { return e.Err }

// Backend abstracts a text completion endpoint over multiple LLM providers.
type Backend interface {
	// Complete sends the prompt to the model and returns the completion text.
	Complete(ctx context.Context, model, prompt string, maxTokens int, temperature float64) (string, error)
}

// Manager binds a judge provider/model pair to a backend and evaluates
// prompts with a bounded retry policy.
type Manager struct {
	provider string
	model    string
	backend  Backend
	attempts int
	delay    time.Duration
	timeout  time.Duration
}

// Option configures the judge manager.
type Option func(*Manager)

// WithRetry overrides the retry budget and delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) {
		if attempts > 0 {
			m.attempts = attempts
		}
		if delay >= 0 {
			m.delay = delay
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// NewManager creates a judge manager for the provider/model pair.
func NewManager(provider, model string, backend Backend, opt ...Option) (*Manager, error) {
	if provider == "" || model == "" {
		return nil, &ModelError{Message: "judge provider and model are required"}
	}
	if backend == nil {
		return nil, &ModelError{Message: "judge backend is nil"}
	}
	m := &Manager{
		provider: provider,
		model:    model,
		backend:  backend,
		attempts: MaxRetryAttempts,
		delay:    RetryDelay,
		timeout:  DefaultTimeout,
	}
	for _, o := range opt {
		o(m)
	}
	return m, nil
}

// Provider returns the judge provider name.
func (m *Manager) Provider() string { return m.provider }

// Model returns the judge model name.
func (m *Manager) Model() string { return m.model }

// Evaluate sends the prompt to the judge model, retrying failed attempts with
// a fixed delay, and returns the trimmed completion text.
func (m *Manager) Evaluate(ctx context.Context, prompt string) (string, error) {
	response, err := retry.Do(ctx, m.attempts, m.delay, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		return m.backend.Complete(callCtx, m.model, prompt, verdictMaxTokens, 0)
	})
	if err != nil {
		return "", &ModelError{Message: fmt.Sprintf("evaluation failed after %d attempts", m.attempts), Err: err}
	}
	return strings.TrimSpace(response), nil
}

// JudgeCorrectness formats the answer correctness prompt, invokes the judge
// and extracts the binary verdict.
func (m *Manager) JudgeCorrectness(ctx context.Context, question, expected, actual string) (bool, error) {
	prompt := fmt.Sprintf(AnswerCorrectnessPrompt, question, expected, actual)
	response, err := m.Evaluate(ctx, prompt)
	if err != nil {
		return false, err
	}
	return ExtractVerdict(response) == 1, nil
}

// ExtractVerdict parses a binary verdict from the judge response.
// Exact matches on "1"/"0" win; otherwise the first standalone 0 or 1 token is
// used; anything else defaults to 0. Malformed judge output must never be
// treated as a pass.
func ExtractVerdict(response string) int {
	response = strings.TrimSpace(response)
	switch response {
	case "1":
		return 1
	case "0":
		return 0
	}
	if match := verdictPattern.FindString(response); match != "" {
		if match == "1" {
			return 1
		}
		return 0
	}
	log.Warnf("Could not extract numeric verdict from judge response: %s", response)
	return 0
}

// ErrNotAvailable is reported when a judge-llm evaluation runs without a
// configured judge manager.
var ErrNotAvailable = errors.New("judge manager not available")
