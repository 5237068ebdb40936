//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestMedian(t *testing.T) {
	assert.Zero(t, Median(nil))
	assert.InDelta(t, 2.0, Median([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 2, 3}), 1e-9)
}

func TestStd(t *testing.T) {
	assert.Zero(t, Std([]float64{1}))
	// Sample std dev of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138.
	assert.InDelta(t, 2.138, Std([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)
}

func TestConfidence95(t *testing.T) {
	assert.Nil(t, Confidence95(nil))
	assert.Nil(t, Confidence95([]float64{0.9}))

	ci := Confidence95([]float64{0.8, 0.9, 0.85, 0.95})
	require.NotNil(t, ci)
	assert.Equal(t, 95, ci.ConfidenceLevel)
	assert.InDelta(t, 0.875, ci.Mean, 1e-9)
	assert.Less(t, ci.Low, ci.Mean)
	assert.Greater(t, ci.High, ci.Mean)
}

func TestSummarize(t *testing.T) {
	assert.Nil(t, Summarize(nil))

	s := Summarize([]float64{1, 0, 1, 1})
	require.NotNil(t, s)
	assert.InDelta(t, 0.75, s.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.Median, 1e-9)
	assert.Zero(t, s.Min)
	assert.InDelta(t, 1.0, s.Max, 1e-9)
	assert.Equal(t, 4, s.Count)
	require.NotNil(t, s.ConfidenceInterval)

	single := Summarize([]float64{0.5})
	require.NotNil(t, single)
	assert.Zero(t, single.Std)
	assert.Nil(t, single.ConfidenceInterval)
}
