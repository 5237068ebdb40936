//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package goaleval drives agent goal evaluations end to end: it queries the
// agent under test, dispatches the response to the configured verdict
// strategy and produces one result per evaluation.
package goaleval

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"trpc.group/trpc-go/goaleval/evalresult"
	"trpc.group/trpc-go/goaleval/evalresult/inmemory"
	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/log"
	"trpc.group/trpc-go/goaleval/script"
)

// AgentClient queries the agent under test.
type AgentClient interface {
	// Query sends one query and returns the agent response text.
	Query(ctx context.Context, query, provider, model, conversationID string) (string, error)
}

// ScriptRunner executes setup, verify and cleanup scripts.
type ScriptRunner interface {
	// Run executes the script and fails on a nonzero exit code.
	Run(ctx context.Context, scriptPath string) (*script.Outcome, error)
	// RunNoCheck executes the script and reports the exit code without
	// treating a nonzero code as an error.
	RunNoCheck(ctx context.Context, scriptPath string) (*script.Outcome, error)
}

// Judge scores an agent response against the expected answer.
type Judge interface {
	// JudgeCorrectness reports whether the actual response answers the
	// question as well as the expected response does.
	JudgeCorrectness(ctx context.Context, question, expected, actual string) (bool, error)
}

// Runner executes evaluation specifications against one provider/model pair.
type Runner struct {
	provider string
	model    string
	agent    AgentClient
	judge    Judge
	scripts  ScriptRunner
	results  evalresult.Manager
	out      io.Writer
}

// Option configures the runner.
type Option func(*Runner)

// WithJudge sets the judge used by judge-llm evaluations. Without a judge,
// judge-llm evaluations produce ERROR results.
func WithJudge(j Judge) Option {
	return func(r *Runner) {
		r.judge = j
	}
}

// WithScriptRunner sets the executor for setup, verify and cleanup scripts.
func WithScriptRunner(s ScriptRunner) Option {
	return func(r *Runner) {
		if s != nil {
			r.scripts = s
		}
	}
}

// WithResultManager sets the result persistence backend.
func WithResultManager(m evalresult.Manager) Option {
	return func(r *Runner) {
		if m != nil {
			r.results = m
		}
	}
}

// WithOutput sets the writer for the end-of-run summary block.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// NewRunner creates a runner for the given agent provider/model pair.
func NewRunner(provider, model string, agentClient AgentClient, opt ...Option) (*Runner, error) {
	if provider == "" || model == "" {
		return nil, fmt.Errorf("agent provider and model are required")
	}
	if agentClient == nil {
		return nil, fmt.Errorf("agent client is required")
	}
	r := &Runner{
		provider: provider,
		model:    model,
		agent:    agentClient,
		results:  inmemory.New(),
		out:      os.Stdout,
	}
	for _, o := range opt {
		o(r)
	}
	if r.scripts == nil {
		sr, err := script.NewRunner()
		if err != nil {
			return nil, fmt.Errorf("create script runner: %w", err)
		}
		r.scripts = sr
	}
	return r, nil
}

// Run executes every evaluation of the data set in order, persists the
// results and prints the summary block. Per-evaluation failures become ERROR
// results and never abort the batch.
func (r *Runner) Run(ctx context.Context, ds *evalspec.DataSet) ([]*evalresult.Result, error) {
	evals := ds.Evals()
	log.Infof("running %d evaluations for %s/%s", len(evals), r.provider, r.model)

	var results []*evalresult.Result
	for _, conv := range ds.Conversations {
		results = append(results, r.runConversation(ctx, conv)...)
	}
	if err := r.results.Save(ctx, results); err != nil {
		return results, fmt.Errorf("save results: %w", err)
	}
	r.printSummary(evalresult.NewStats(results))
	return results, nil
}

// runConversation runs one conversation group: setup before the first
// evaluation, the evaluations in order, cleanup after the last. A setup
// failure marks every evaluation of the group as ERROR without querying the
// agent. A cleanup failure is logged and does not alter the verdicts.
func (r *Runner) runConversation(ctx context.Context, conv *evalspec.ConversationConfig) []*evalresult.Result {
	if conv.SetupScript != "" {
		if _, err := r.scripts.Run(ctx, conv.SetupScript); err != nil {
			log.Errorf("setup script failed for conversation %s: %v", conv.ConversationGroup, err)
			results := make([]*evalresult.Result, 0, len(conv.Conversation))
			for _, cfg := range conv.Conversation {
				results = append(results, evalresult.NewErrorResult(cfg, fmt.Sprintf("setup script failed: %v", err)))
			}
			return results
		}
		log.Infof("setup script executed for conversation %s", conv.ConversationGroup)
	}

	results := make([]*evalresult.Result, 0, len(conv.Conversation))
	for _, cfg := range conv.Conversation {
		result := r.runEval(ctx, cfg)
		log.Infof("evaluation %s: %s", cfg.EvalID, result.Status)
		if result.Error != "" {
			log.Errorf("evaluation %s error: %s", cfg.EvalID, result.Error)
		}
		results = append(results, result)
	}

	if conv.CleanupScript != "" {
		if _, err := r.scripts.Run(ctx, conv.CleanupScript); err != nil {
			log.Warnf("cleanup script failed for conversation %s: %v", conv.ConversationGroup, err)
		} else {
			log.Infof("cleanup script executed for conversation %s", conv.ConversationGroup)
		}
	}
	return results
}

// runEval queries the agent and dispatches the response to the verdict
// strategy. Exactly one result comes out, whatever happens inside.
func (r *Runner) runEval(ctx context.Context, cfg *evalspec.EvalConfig) (result *evalresult.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("evaluation %s panicked: %v", cfg.EvalID, rec)
			result = evalresult.NewErrorResult(cfg, fmt.Sprintf("evaluation panicked: %v", rec))
		}
	}()

	response, err := r.agent.Query(ctx, cfg.EvalQuery, r.provider, r.model, cfg.ConversationUUID)
	if err != nil {
		return evalresult.NewErrorResult(cfg, err.Error())
	}
	passed, err := r.evaluate(ctx, cfg, response)
	if err != nil {
		return evalresult.NewErrorResult(cfg, err.Error())
	}
	return evalresult.NewResult(cfg, response, passed)
}

// printSummary writes the human-readable end-of-run summary block.
func (r *Runner) printSummary(stats *evalresult.Stats) {
	banner := strings.Repeat("=", 50)
	fmt.Fprintf(r.out, "\n%s\n", banner)
	fmt.Fprintln(r.out, "EVALUATION SUMMARY")
	fmt.Fprintln(r.out, banner)
	fmt.Fprintf(r.out, "Total Evaluations: %d\n", stats.TotalEvaluations)
	fmt.Fprintf(r.out, "Passed: %d\n", stats.Passed)
	fmt.Fprintf(r.out, "Failed: %d\n", stats.Failed)
	fmt.Fprintf(r.out, "Errored: %d\n", stats.Errored)
	fmt.Fprintf(r.out, "Success Rate: %.1f%%\n", stats.SuccessRate)
	fmt.Fprintf(r.out, "%s\n\n", banner)
}
