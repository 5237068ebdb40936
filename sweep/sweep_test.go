//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	return &Catalog{Providers: []Provider{
		{Name: "openai", Models: []string{"m1", "m2"}},
		{Name: "watsonx", Models: []string{"m3"}},
	}}
}

func okSummary() map[string]int {
	return map[string]int{"PASS": 5, "FAIL": 2, "ERROR": 0}
}

func TestOrchestratorRunSequential(t *testing.T) {
	var mu sync.Mutex
	var seen []RunConfig
	run := func(ctx context.Context, cfg RunConfig) (map[string]int, error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, cfg)
		return okSummary(), nil
	}
	base := RunConfig{
		AgentEndpoint: "http://localhost:8080",
		JudgeProvider: "openai",
		JudgeModel:    "gpt-4o-mini",
		EvalDataPath:  "eval_data.yaml",
	}
	o, err := NewOrchestrator(testCatalog(t), base, t.TempDir(), run)
	require.NoError(t, err)

	results := o.Run(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, "openai", results[0].Provider)
	assert.Equal(t, "m1", results[0].Model)
	assert.Equal(t, "m2", results[1].Model)
	assert.Equal(t, "watsonx", results[2].Provider)
	assert.Equal(t, "m3", results[2].Model)

	for i, jr := range results {
		assert.True(t, jr.Success, "job %d", i)
		assert.Equal(t, okSummary(), jr.Summary)
		assert.GreaterOrEqual(t, jr.DurationSeconds, 0.0)
	}

	// The agent under test changes per job, the judge never does.
	require.Len(t, seen, 3)
	assert.Equal(t, "openai", seen[0].AgentProvider)
	assert.Equal(t, "m1", seen[0].AgentModel)
	assert.Equal(t, "watsonx", seen[2].AgentProvider)
	for _, cfg := range seen {
		assert.Equal(t, base.JudgeProvider, cfg.JudgeProvider)
		assert.Equal(t, base.JudgeModel, cfg.JudgeModel)
		assert.Equal(t, base.EvalDataPath, cfg.EvalDataPath)
		assert.NotEmpty(t, cfg.OutputDir)
	}
	assert.NotEqual(t, seen[0].OutputDir, seen[1].OutputDir)
}

func TestOrchestratorContinuesOnJobFailure(t *testing.T) {
	calls := 0
	run := func(ctx context.Context, cfg RunConfig) (map[string]int, error) {
		calls++
		switch calls {
		case 1:
			return nil, errors.New("connection refused")
		case 2:
			return map[string]int{"PASS": 5, "FAIL": 2}, nil
		default:
			return okSummary(), nil
		}
	}
	o, err := NewOrchestrator(testCatalog(t), RunConfig{}, t.TempDir(), run)
	require.NoError(t, err)

	results := o.Run(context.Background())
	require.Len(t, results, 3)

	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "connection refused")
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "invalid summary structure")
	assert.Contains(t, results[1].Error, "ERROR")
	assert.True(t, results[2].Success)
}

func TestOrchestratorNilSummaryIsFailure(t *testing.T) {
	run := func(ctx context.Context, cfg RunConfig) (map[string]int, error) {
		return nil, nil
	}
	catalog := &Catalog{Providers: []Provider{{Name: "openai", Models: []string{"m1"}}}}
	o, err := NewOrchestrator(catalog, RunConfig{}, t.TempDir(), run)
	require.NoError(t, err)

	results := o.Run(context.Background())
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "evaluation returned no summary", results[0].Error)
}

func TestOrchestratorParallelKeepsOrder(t *testing.T) {
	run := func(ctx context.Context, cfg RunConfig) (map[string]int, error) {
		return okSummary(), nil
	}
	o, err := NewOrchestrator(testCatalog(t), RunConfig{}, t.TempDir(), run, WithParallelism(3))
	require.NoError(t, err)

	results := o.Run(context.Background())
	require.Len(t, results, 3)
	assert.Equal(t, "m1", results[0].Model)
	assert.Equal(t, "m2", results[1].Model)
	assert.Equal(t, "m3", results[2].Model)
	for _, jr := range results {
		assert.True(t, jr.Success)
	}
}

func TestNewOrchestratorValidation(t *testing.T) {
	run := func(ctx context.Context, cfg RunConfig) (map[string]int, error) { return nil, nil }
	_, err := NewOrchestrator(nil, RunConfig{}, "out", run)
	assert.Error(t, err)
	_, err = NewOrchestrator(testCatalog(t), RunConfig{}, "", run)
	assert.Error(t, err)
	_, err = NewOrchestrator(testCatalog(t), RunConfig{}, "out", nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	results := []*JobResult{
		{Success: true},
		{Success: false, Error: "boom"},
	}
	s := Summarize(results)
	assert.Equal(t, 2, s.TotalEvaluations)
	assert.Equal(t, 1, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, "50.0%", s.SuccessRate)

	empty := Summarize(nil)
	assert.Equal(t, "0.0%", empty.SuccessRate)
}
