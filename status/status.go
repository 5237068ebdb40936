//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package status provides the verdict of an evaluation.
package status

// DefaultThreshold is applied when a score-based metric has no explicit threshold.
const DefaultThreshold = 0.5

// EvalStatus represents the outcome of a single evaluation.
type EvalStatus int

const (
	// EvalStatusUnknown represents an unknown evaluation outcome.
	EvalStatusUnknown EvalStatus = iota
	// EvalStatusPass represents a passed evaluation.
	EvalStatusPass
	// EvalStatusFail represents a failed evaluation.
	EvalStatusFail
	// EvalStatusError represents an evaluation that could not be completed.
	EvalStatusError
)

// String returns the string representation of the evaluation status.
func (s EvalStatus) String() string {
	switch s {
	case EvalStatusPass:
		return "PASS"
	case EvalStatusFail:
		return "FAIL"
	case EvalStatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Parse converts a textual verdict into an EvalStatus.
func Parse(s string) EvalStatus {
	switch s {
	case "PASS":
		return EvalStatusPass
	case "FAIL":
		return EvalStatusFail
	case "ERROR":
		return EvalStatusError
	default:
		return EvalStatusUnknown
	}
}

// FromBool converts a pass/fail verdict into an EvalStatus.
func FromBool(passed bool) EvalStatus {
	if passed {
		return EvalStatusPass
	}
	return EvalStatusFail
}

// FromScore determines the status for a continuous score against a threshold.
// A nil threshold falls back to DefaultThreshold.
func FromScore(score float64, threshold *float64) EvalStatus {
	t := DefaultThreshold
	if threshold != nil {
		t = *threshold
	}
	return FromBool(score >= t)
}
