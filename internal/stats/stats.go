//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package stats provides the descriptive statistics used by the model
// comparison report.
package stats

import (
	"math"
	"sort"
)

// zScore95 is the two-sided critical value for a 95% confidence level.
const zScore95 = 1.96

// ConfidenceInterval bounds the population mean at a confidence level.
type ConfidenceInterval struct {
	// Low is the lower bound of the interval.
	Low float64 `json:"low" yaml:"low"`
	// High is the upper bound of the interval.
	High float64 `json:"high" yaml:"high"`
	// Mean is the sample mean the interval is centered on.
	Mean float64 `json:"mean" yaml:"mean"`
	// ConfidenceLevel is the confidence level in percent.
	ConfidenceLevel int `json:"confidence_level" yaml:"confidence_level"`
}

// Summary holds the descriptive statistics of one sample.
type Summary struct {
	// Mean is the arithmetic mean.
	Mean float64 `json:"mean" yaml:"mean"`
	// Median is the middle value of the sorted sample.
	Median float64 `json:"median" yaml:"median"`
	// Std is the sample standard deviation, 0 for fewer than 2 values.
	Std float64 `json:"std" yaml:"std"`
	// Min is the smallest value.
	Min float64 `json:"min" yaml:"min"`
	// Max is the largest value.
	Max float64 `json:"max" yaml:"max"`
	// Count is the sample size.
	Count int `json:"count" yaml:"count"`
	// ConfidenceInterval is the 95% interval over the sample mean,
	// nil for fewer than 2 values.
	ConfidenceInterval *ConfidenceInterval `json:"confidence_interval" yaml:"confidence_interval"`
}

// Summarize computes the descriptive statistics of the sample. It returns nil
// for an empty sample.
func Summarize(values []float64) *Summary {
	if len(values) == 0 {
		return nil
	}
	s := &Summary{
		Mean:   Mean(values),
		Median: Median(values),
		Std:    Std(values),
		Min:    values[0],
		Max:    values[0],
		Count:  len(values),
	}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.ConfidenceInterval = Confidence95(values)
	return s
}

// Mean returns the arithmetic mean, 0 for an empty sample.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value of the sorted sample, 0 when empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Std returns the sample standard deviation, 0 for fewer than 2 values.
func Std(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Confidence95 returns the 95% confidence interval over the sample mean using
// the normal approximation. It is nil for fewer than 2 values since a single
// observation carries no spread information.
func Confidence95(values []float64) *ConfidenceInterval {
	n := len(values)
	if n < 2 {
		return nil
	}
	mean := Mean(values)
	margin := zScore95 * Std(values) / math.Sqrt(float64(n))
	return &ConfidenceInterval{
		Low:             mean - margin,
		High:            mean + margin,
		Mean:            mean,
		ConfidenceLevel: 95,
	}
}
