//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package compare ranks the models of a sweep by a composite score computed
// from their evaluation results.
package compare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/goaleval/evalresult"
	"trpc.group/trpc-go/goaleval/internal/stats"
	"trpc.group/trpc-go/goaleval/status"
)

// Composite score weights. They sum to 1 so that an all-pass, zero-error,
// perfect-score model scores exactly 1.0.
const (
	weightPassRate     = 0.4
	weightInverseError = 0.25
	weightMeanScore    = 0.25
	weightSuccessRate  = 0.1
)

// OverallStats holds the normalized verdict rates of one model. All rates are
// in the [0, 1] range.
type OverallStats struct {
	// TotalEvaluations is the number of evaluations run for the model.
	TotalEvaluations int `json:"total_evaluations" yaml:"total_evaluations"`
	// Passed is the count of PASS verdicts.
	Passed int `json:"passed" yaml:"passed"`
	// Failed is the count of FAIL verdicts.
	Failed int `json:"failed" yaml:"failed"`
	// Errored is the count of ERROR verdicts.
	Errored int `json:"errored" yaml:"errored"`
	// PassRate is passed/total.
	PassRate float64 `json:"pass_rate" yaml:"pass_rate"`
	// FailRate is failed/total.
	FailRate float64 `json:"fail_rate" yaml:"fail_rate"`
	// ErrorRate is errored/total.
	ErrorRate float64 `json:"error_rate" yaml:"error_rate"`
	// SuccessRate is the share of evaluations that completed without ERROR.
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// ModelStats is the comparison record of one model.
type ModelStats struct {
	// ModelKey identifies the model as provider/model.
	ModelKey string `json:"model_key" yaml:"model_key"`
	// CompositeScore is the weighted ranking score in [0, 1].
	CompositeScore float64 `json:"composite_score" yaml:"composite_score"`
	// Overall holds the normalized verdict rates.
	Overall OverallStats `json:"overall" yaml:"overall"`
	// Scores describes the per-evaluation score distribution,
	// nil when the model produced no results.
	Scores *stats.Summary `json:"score_statistics" yaml:"score_statistics"`
}

// BestModel is the winner declaration of a comparison.
type BestModel struct {
	// Model is the winning model key.
	Model string `json:"model" yaml:"model"`
	// CompositeScore is the winning score.
	CompositeScore float64 `json:"composite_score" yaml:"composite_score"`
}

// Artifact is the structured output of a comparison.
type Artifact struct {
	// GeneratedAt is the artifact creation time, RFC 3339.
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	// BestModel declares the winner, nil when no model was added.
	BestModel *BestModel `json:"best_model" yaml:"best_model"`
	// Models lists every compared model in rank order.
	Models []*ModelStats `json:"models" yaml:"models"`
}

// Comparator accumulates per-model results and ranks the models.
type Comparator struct {
	models []*ModelStats
}

// NewComparator creates an empty comparator.
func NewComparator() *Comparator {
	return &Comparator{}
}

// AddResults computes the comparison record for one model from its evaluation
// results and adds it to the comparison. A PASS verdict scores 1.0, anything
// else scores 0.0.
func (c *Comparator) AddResults(modelKey string, results []*evalresult.Result) *ModelStats {
	overall := OverallStats{TotalEvaluations: len(results)}
	scores := make([]float64, 0, len(results))
	for _, result := range results {
		switch result.Status {
		case status.EvalStatusPass:
			overall.Passed++
			scores = append(scores, 1.0)
		case status.EvalStatusError:
			overall.Errored++
			scores = append(scores, 0.0)
		default:
			overall.Failed++
			scores = append(scores, 0.0)
		}
	}
	if overall.TotalEvaluations > 0 {
		total := float64(overall.TotalEvaluations)
		overall.PassRate = float64(overall.Passed) / total
		overall.FailRate = float64(overall.Failed) / total
		overall.ErrorRate = float64(overall.Errored) / total
		overall.SuccessRate = float64(overall.Passed+overall.Failed) / total
	}
	summary := stats.Summarize(scores)
	var meanScore float64
	if summary != nil {
		meanScore = summary.Mean
	}
	ms := &ModelStats{
		ModelKey:       modelKey,
		CompositeScore: CompositeScore(overall.PassRate, overall.ErrorRate, meanScore, overall.SuccessRate),
		Overall:        overall,
		Scores:         summary,
	}
	c.models = append(c.models, ms)
	return ms
}

// CompositeScore combines the normalized rates into one ranking score,
// clamped to [0, 1]. It is non-decreasing in pass rate and mean score and
// non-increasing in error rate.
func CompositeScore(passRate, errorRate, meanScore, successRate float64) float64 {
	score := weightPassRate*Normalize(passRate) +
		weightInverseError*(1-Normalize(errorRate)) +
		weightMeanScore*Normalize(meanScore) +
		weightSuccessRate*Normalize(successRate)
	return clamp01(score)
}

// Normalize maps a rate into [0, 1]. Values above 1 are treated as 0-100
// percentages and divided by 100.
func Normalize(rate float64) float64 {
	if rate > 1 {
		rate /= 100
	}
	return clamp01(rate)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Rank returns the models by composite score descending. Ties break by total
// evaluation count descending, then by model key, so the order is
// deterministic.
func (c *Comparator) Rank() []*ModelStats {
	ranked := make([]*ModelStats, len(c.models))
	copy(ranked, c.models)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CompositeScore != ranked[j].CompositeScore {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		}
		if ranked[i].Overall.TotalEvaluations != ranked[j].Overall.TotalEvaluations {
			return ranked[i].Overall.TotalEvaluations > ranked[j].Overall.TotalEvaluations
		}
		return ranked[i].ModelKey < ranked[j].ModelKey
	})
	return ranked
}

// Best returns the top-ranked model, nil when no model was added.
func (c *Comparator) Best() *ModelStats {
	ranked := c.Rank()
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// Artifact builds the structured comparison output.
func (c *Comparator) Artifact() *Artifact {
	a := &Artifact{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Models:      c.Rank(),
	}
	if best := c.Best(); best != nil {
		a.BestModel = &BestModel{Model: best.ModelKey, CompositeScore: best.CompositeScore}
	}
	return a
}

// Save writes the comparison artifact as YAML. The write is atomic so a
// crashed run never leaves a truncated artifact behind.
func (c *Comparator) Save(path string) error {
	data, err := yaml.Marshal(c.Artifact())
	if err != nil {
		return fmt.Errorf("marshal comparison artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write comparison artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename comparison artifact: %w", err)
	}
	return nil
}

// WriteReport writes the human-readable comparison report.
func (c *Comparator) WriteReport(w io.Writer) {
	banner := "======================================================================"
	fmt.Fprintf(w, "\n%s\n", banner)
	fmt.Fprintln(w, "MODEL COMPARISON REPORT")
	fmt.Fprintln(w, banner)

	ranked := c.Rank()
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No model results to compare.")
		return
	}
	best := ranked[0]
	fmt.Fprintf(w, "\nBEST MODEL: %s (composite score %.3f)\n\n", best.ModelKey, best.CompositeScore)

	fmt.Fprintf(w, "%-4s %-40s %-8s %-6s %-6s %-6s %-8s\n",
		"#", "MODEL", "SCORE", "PASS", "FAIL", "ERROR", "PASS%")
	for i, m := range ranked {
		fmt.Fprintf(w, "%-4d %-40s %-8.3f %-6d %-6d %-6d %-8.1f\n",
			i+1, m.ModelKey, m.CompositeScore,
			m.Overall.Passed, m.Overall.Failed, m.Overall.Errored,
			m.Overall.PassRate*100)
	}

	for _, m := range ranked {
		if m.Scores == nil || m.Scores.ConfidenceInterval == nil {
			continue
		}
		ci := m.Scores.ConfidenceInterval
		fmt.Fprintf(w, "\n%s: mean score %.3f, %d%% CI [%.3f, %.3f] over %d evaluations\n",
			m.ModelKey, ci.Mean, ci.ConfidenceLevel, ci.Low, ci.High, m.Scores.Count)
	}
	fmt.Fprintf(w, "%s\n", banner)
}
