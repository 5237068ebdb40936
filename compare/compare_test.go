//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package compare

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/goaleval/evalresult"
	"trpc.group/trpc-go/goaleval/status"
)

func resultsWithCounts(passed, failed, errored int) []*evalresult.Result {
	var out []*evalresult.Result
	add := func(n int, s status.EvalStatus) {
		for i := 0; i < n; i++ {
			out = append(out, &evalresult.Result{EvalID: "eval", Status: s})
		}
	}
	add(passed, status.EvalStatusPass)
	add(failed, status.EvalStatusFail)
	add(errored, status.EvalStatusError)
	return out
}

func TestCompositeScoreExtremes(t *testing.T) {
	assert.InDelta(t, 1.0, CompositeScore(1.0, 0.0, 1.0, 1.0), 1e-9)
	assert.InDelta(t, 0.0, CompositeScore(0.0, 1.0, 0.0, 0.0), 1e-9)
}

func TestCompositeScoreMonotonic(t *testing.T) {
	base := CompositeScore(0.5, 0.2, 0.5, 0.8)
	assert.Greater(t, CompositeScore(0.6, 0.2, 0.5, 0.8), base)
	assert.Greater(t, CompositeScore(0.5, 0.2, 0.6, 0.8), base)
	assert.Less(t, CompositeScore(0.5, 0.3, 0.5, 0.8), base)
}

func TestCompositeScoreClamped(t *testing.T) {
	score := CompositeScore(2.0, -1.0, 2.0, 2.0)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 0.8, Normalize(80.0), 1e-9)
	assert.InDelta(t, 0.8, Normalize(0.8), 1e-9)
	assert.InDelta(t, 1.0, Normalize(150.0), 1e-9)
	assert.Zero(t, Normalize(-5))
}

func TestAddResultsRates(t *testing.T) {
	c := NewComparator()
	ms := c.AddResults("openai/gpt-4o-mini", resultsWithCounts(8, 1, 1))

	assert.Equal(t, 10, ms.Overall.TotalEvaluations)
	assert.InDelta(t, 0.8, ms.Overall.PassRate, 1e-9)
	assert.InDelta(t, 0.1, ms.Overall.FailRate, 1e-9)
	assert.InDelta(t, 0.1, ms.Overall.ErrorRate, 1e-9)
	assert.InDelta(t, 0.9, ms.Overall.SuccessRate, 1e-9)
	require.NotNil(t, ms.Scores)
	assert.InDelta(t, 0.8, ms.Scores.Mean, 1e-9)
	require.NotNil(t, ms.Scores.ConfidenceInterval)
	assert.Equal(t, 95, ms.Scores.ConfidenceInterval.ConfidenceLevel)
}

func TestAddResultsEmpty(t *testing.T) {
	c := NewComparator()
	ms := c.AddResults("empty/model", nil)
	// Only the zero-error term contributes for an empty result set.
	assert.InDelta(t, weightInverseError, ms.CompositeScore, 1e-9)
	assert.Nil(t, ms.Scores)
}

func TestRankDeterministic(t *testing.T) {
	c := NewComparator()
	// Composite scores: A 0.92ish > B > C. Built from counts so the exact
	// values do not matter, only the ordering.
	c.AddResults("B", resultsWithCounts(85, 15, 0))
	c.AddResults("A", resultsWithCounts(92, 8, 0))
	c.AddResults("C", resultsWithCounts(70, 30, 0))

	ranked := c.Rank()
	require.Len(t, ranked, 3)
	assert.Equal(t, "A", ranked[0].ModelKey)
	assert.Equal(t, "B", ranked[1].ModelKey)
	assert.Equal(t, "C", ranked[2].ModelKey)

	best := c.Best()
	require.NotNil(t, best)
	assert.Equal(t, "A", best.ModelKey)
}

func TestRankTieBreak(t *testing.T) {
	c := NewComparator()
	// Identical rates, different sample sizes: larger sample ranks first.
	c.AddResults("small", resultsWithCounts(5, 5, 0))
	c.AddResults("large", resultsWithCounts(50, 50, 0))
	// Identical everything: key order decides.
	c.AddResults("zz", resultsWithCounts(5, 5, 0))

	ranked := c.Rank()
	assert.Equal(t, "large", ranked[0].ModelKey)
	assert.Equal(t, "small", ranked[1].ModelKey)
	assert.Equal(t, "zz", ranked[2].ModelKey)
}

func TestSaveArtifact(t *testing.T) {
	c := NewComparator()
	c.AddResults("openai/gpt-4o-mini", resultsWithCounts(9, 1, 0))
	c.AddResults("watsonx/granite", resultsWithCounts(5, 5, 0))

	path := filepath.Join(t.TempDir(), "out", "model_comparison.yaml")
	require.NoError(t, c.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var artifact Artifact
	require.NoError(t, yaml.Unmarshal(data, &artifact))

	require.NotNil(t, artifact.BestModel)
	assert.Equal(t, "openai/gpt-4o-mini", artifact.BestModel.Model)
	require.Len(t, artifact.Models, 2)
	assert.Equal(t, "openai/gpt-4o-mini", artifact.Models[0].ModelKey)
}

func TestWriteReport(t *testing.T) {
	c := NewComparator()
	c.AddResults("openai/gpt-4o-mini", resultsWithCounts(9, 1, 0))

	var out bytes.Buffer
	c.WriteReport(&out)
	report := out.String()
	assert.Contains(t, report, "MODEL COMPARISON REPORT")
	assert.Contains(t, report, "BEST MODEL: openai/gpt-4o-mini")
	assert.Contains(t, report, "95% CI")
}

func TestWriteReportEmpty(t *testing.T) {
	var out bytes.Buffer
	NewComparator().WriteReport(&out)
	assert.Contains(t, out.String(), "No model results to compare")
}
