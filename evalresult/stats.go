//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"math"

	"trpc.group/trpc-go/goaleval/status"
)

// CategoryStats records a simple histogram of verdicts for one category.
type CategoryStats struct {
	// Passed is the count of PASS verdicts.
	Passed int `json:"passed" yaml:"passed"`
	// Failed is the count of FAIL verdicts.
	Failed int `json:"failed" yaml:"failed"`
	// Errored is the count of ERROR verdicts.
	Errored int `json:"errored" yaml:"errored"`
	// Total is the number of evaluations in this category.
	Total int `json:"total" yaml:"total"`
	// SuccessRate is passed/total as a percentage, rounded to two decimals.
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// Stats is a projection over a result list. It carries no independent
// lifecycle and is recomputed from the result set on demand.
type Stats struct {
	// TotalEvaluations is the number of results.
	TotalEvaluations int `json:"total_evaluations" yaml:"total_evaluations"`
	// TotalConversations is the number of distinct conversation groups.
	TotalConversations int `json:"total_conversations" yaml:"total_conversations"`
	// Passed is the count of PASS verdicts.
	Passed int `json:"passed" yaml:"passed"`
	// Failed is the count of FAIL verdicts.
	Failed int `json:"failed" yaml:"failed"`
	// Errored is the count of ERROR verdicts.
	Errored int `json:"errored" yaml:"errored"`
	// SuccessRate is passed/total as a percentage.
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
	// ByConversation groups counts by conversation group.
	ByConversation map[string]*CategoryStats `json:"by_conversation" yaml:"by_conversation"`
	// ByEvalType groups counts by evaluation type.
	ByEvalType map[string]*CategoryStats `json:"by_eval_type" yaml:"by_eval_type"`
}

// CountByCategory reduces results into per-category verdict counts keyed by an
// arbitrary extractor. Running it twice over the same list yields identical
// statistics.
func CountByCategory(results []*Result, keyOf func(*Result) string) map[string]*CategoryStats {
	byCategory := make(map[string]*CategoryStats)
	for _, result := range results {
		key := keyOf(result)
		cs, ok := byCategory[key]
		if !ok {
			cs = &CategoryStats{}
			byCategory[key] = cs
		}
		switch result.Status {
		case status.EvalStatusPass:
			cs.Passed++
		case status.EvalStatusFail:
			cs.Failed++
		case status.EvalStatusError:
			cs.Errored++
		}
	}
	for _, cs := range byCategory {
		cs.Total = cs.Passed + cs.Failed + cs.Errored
		cs.SuccessRate = successRate(cs.Passed, cs.Total)
	}
	return byCategory
}

// NewStats computes comprehensive statistics from a result list.
func NewStats(results []*Result) *Stats {
	stats := &Stats{TotalEvaluations: len(results)}
	conversations := make(map[string]struct{})
	for _, result := range results {
		switch result.Status {
		case status.EvalStatusPass:
			stats.Passed++
		case status.EvalStatusFail:
			stats.Failed++
		case status.EvalStatusError:
			stats.Errored++
		}
		if result.ConversationGroup != "" {
			conversations[result.ConversationGroup] = struct{}{}
		}
	}
	stats.TotalConversations = len(conversations)
	stats.SuccessRate = successRate(stats.Passed, stats.TotalEvaluations)
	stats.ByConversation = CountByCategory(results, func(r *Result) string {
		if r.ConversationGroup == "" {
			return "unknown"
		}
		return r.ConversationGroup
	})
	stats.ByEvalType = CountByCategory(results, func(r *Result) string {
		return string(r.EvalType)
	})
	return stats
}

// StatusCounts returns the PASS/FAIL/ERROR histogram of the result list.
func StatusCounts(results []*Result) map[string]int {
	counts := map[string]int{
		status.EvalStatusPass.String():  0,
		status.EvalStatusFail.String():  0,
		status.EvalStatusError.String(): 0,
	}
	for _, result := range results {
		counts[result.Status.String()]++
	}
	return counts
}

// successRate returns passed/total as a percentage rounded to two decimals,
// and 0.0 for an empty set.
func successRate(passed, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(passed)/float64(total)*100*100) / 100
}
