//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeBackend) Complete(ctx context.Context, model, prompt string, maxTokens int, temperature float64) (string, error) {
	idx := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func TestExtractVerdict(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"exact one", "1", 1},
		{"exact zero", "0", 0},
		{"padded one", "  1  ", 1},
		{"embedded one", "The answer is correct: 1", 1},
		{"embedded zero", "I would say 0 here", 0},
		{"first token wins", "0 not 1", 0},
		{"not standalone", "10 out of 10", 0},
		{"unparseable defaults to fail", "the answer looks fine", 0},
		{"empty defaults to fail", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVerdict(tt.response))
		})
	}
}

func TestManagerEvaluateRetries(t *testing.T) {
	backend := &fakeBackend{
		errs:      []error{errors.New("transient"), errors.New("transient")},
		responses: []string{"", "", "1"},
	}
	mgr, err := NewManager("openai", "gpt-4o-mini", backend, WithRetry(3, 0))
	require.NoError(t, err)

	response, err := mgr.Evaluate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "1", response)
	assert.Equal(t, 3, backend.calls)
}

func TestManagerEvaluateExhaustsRetries(t *testing.T) {
	backend := &fakeBackend{
		errs: []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	mgr, err := NewManager("openai", "gpt-4o-mini", backend, WithRetry(3, 0))
	require.NoError(t, err)

	_, err = mgr.Evaluate(context.Background(), "prompt")
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Contains(t, modelErr.Error(), "after 3 attempts")
	assert.Equal(t, 3, backend.calls)
}

func TestManagerJudgeCorrectness(t *testing.T) {
	t.Run("pass verdict", func(t *testing.T) {
		backend := &fakeBackend{responses: []string{"1"}}
		mgr, err := NewManager("openai", "gpt-4o-mini", backend, WithRetry(1, 0))
		require.NoError(t, err)
		passed, err := mgr.JudgeCorrectness(context.Background(), "q", "expected", "actual")
		require.NoError(t, err)
		assert.True(t, passed)
		require.Len(t, backend.prompts, 1)
		assert.Contains(t, backend.prompts[0], "q")
		assert.Contains(t, backend.prompts[0], "expected")
		assert.Contains(t, backend.prompts[0], "actual")
	})

	t.Run("fail-closed on malformed output", func(t *testing.T) {
		backend := &fakeBackend{responses: []string{"looks good to me"}}
		mgr, err := NewManager("openai", "gpt-4o-mini", backend, WithRetry(1, 0))
		require.NoError(t, err)
		passed, err := mgr.JudgeCorrectness(context.Background(), "q", "e", "a")
		require.NoError(t, err)
		assert.False(t, passed)
	})
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager("", "model", &fakeBackend{})
	assert.Error(t, err)
	_, err = NewManager("openai", "", &fakeBackend{})
	assert.Error(t, err)
	_, err = NewManager("openai", "model", nil)
	assert.Error(t, err)
}
