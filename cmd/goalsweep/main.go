//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package main sweeps an evaluation pass over every provider/model pair of a
// catalog and ranks the models statistically.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"trpc.group/trpc-go/goaleval"
	"trpc.group/trpc-go/goaleval/agent"
	"trpc.group/trpc-go/goaleval/compare"
	"trpc.group/trpc-go/goaleval/evalresult"
	"trpc.group/trpc-go/goaleval/evalresult/local"
	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/judge"
	judgeopenai "trpc.group/trpc-go/goaleval/judge/openai"
	"trpc.group/trpc-go/goaleval/log"
	"trpc.group/trpc-go/goaleval/script"
	"trpc.group/trpc-go/goaleval/sweep"
)

const (
	sweepSummaryFile   = "sweep_summary.json"
	comparisonFile     = "model_comparison.yaml"
	defaultOutputBase  = "eval_output"
	defaultParallelism = 1
)

var (
	catalogPath    = flag.String("catalog", "providers.yaml", "Path to the provider/model catalog")
	evalDataPath   = flag.String("eval-data", "eval_data.yaml", "Path to the evaluation data file")
	agentEndpoint  = flag.String("agent-endpoint", "http://localhost:8080", "Agent service endpoint")
	agentTokenFile = flag.String("agent-token-file", "", "File holding the agent service bearer token")
	judgeProvider  = flag.String("judge-provider", "", "Judge model provider, constant across the sweep")
	judgeModel     = flag.String("judge-model", "", "Judge model name, constant across the sweep")
	kubeconfig     = flag.String("kubeconfig", "", "Kubeconfig passed to setup/verify/cleanup scripts")
	outputBase     = flag.String("output-dir", defaultOutputBase, "Base directory for per-job result artifacts")
	parallelism    = flag.Int("parallelism", defaultParallelism, "Number of jobs to run concurrently")
	logLevel       = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	log.SetLevel(*logLevel)

	catalog, err := sweep.LoadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	var agentOpts []agent.Option
	if *agentTokenFile != "" {
		agentOpts = append(agentOpts, agent.WithTokenFile(*agentTokenFile))
	}
	client, err := agent.NewClient(*agentEndpoint, agentOpts...)
	if err != nil {
		log.Fatalf("create agent client: %v", err)
	}
	defer client.Close()

	// The judge is configured once and shared read-only so every job is
	// scored under identical conditions.
	var judgeManager *judge.Manager
	if *judgeProvider != "" && *judgeModel != "" {
		backend, err := judgeopenai.New(*judgeProvider)
		if err != nil {
			log.Fatalf("configure judge backend: %v", err)
		}
		judgeManager, err = judge.NewManager(*judgeProvider, *judgeModel, backend)
		if err != nil {
			log.Fatalf("create judge manager: %v", err)
		}
	}

	base := sweep.RunConfig{
		AgentEndpoint:  *agentEndpoint,
		AgentTokenFile: *agentTokenFile,
		JudgeProvider:  *judgeProvider,
		JudgeModel:     *judgeModel,
		EvalDataPath:   *evalDataPath,
		Kubeconfig:     *kubeconfig,
	}
	runJob := func(ctx context.Context, cfg sweep.RunConfig) (map[string]int, error) {
		return runEvaluation(ctx, cfg, client, judgeManager)
	}

	orchestrator, err := sweep.NewOrchestrator(catalog, base, *outputBase, runJob,
		sweep.WithParallelism(*parallelism))
	if err != nil {
		log.Fatalf("create sweep orchestrator: %v", err)
	}

	ctx := context.Background()
	results := orchestrator.Run(ctx)
	summary := sweep.Summarize(results)
	log.Infof("sweep finished: %d/%d jobs successful (%s)",
		summary.Successful, summary.TotalEvaluations, summary.SuccessRate)

	if err := writeSweepSummary(*outputBase, results, summary); err != nil {
		log.Errorf("write sweep summary: %v", err)
	}
	if err := writeComparison(ctx, *outputBase, results); err != nil {
		log.Errorf("write model comparison: %v", err)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// runEvaluation executes one full evaluation pass for a sweep job and
// returns its verdict counts.
func runEvaluation(ctx context.Context, cfg sweep.RunConfig, client *agent.Client, judgeManager *judge.Manager) (map[string]int, error) {
	ds, err := evalspec.Load(cfg.EvalDataPath)
	if err != nil {
		return nil, fmt.Errorf("load evaluation data: %w", err)
	}
	opts := []goaleval.Option{
		goaleval.WithResultManager(local.New(evalresult.WithBaseDir(cfg.OutputDir))),
	}
	if cfg.Kubeconfig != "" {
		scripts, err := script.NewRunner(script.WithKubeconfig(cfg.Kubeconfig))
		if err != nil {
			return nil, fmt.Errorf("create script runner: %w", err)
		}
		opts = append(opts, goaleval.WithScriptRunner(scripts))
	}
	if judgeManager != nil {
		opts = append(opts, goaleval.WithJudge(judgeManager))
	}
	runner, err := goaleval.NewRunner(cfg.AgentProvider, cfg.AgentModel, client, opts...)
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}
	results, err := runner.Run(ctx, ds)
	if err != nil {
		return nil, err
	}
	return evalresult.StatusCounts(results), nil
}

// writeSweepSummary persists the job records and the aggregate summary.
func writeSweepSummary(outputBase string, results []*sweep.JobResult, summary *sweep.Summary) error {
	record := struct {
		Summary *sweep.Summary     `json:"summary"`
		Jobs    []*sweep.JobResult `json:"jobs"`
	}{Summary: summary, Jobs: results}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputBase, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputBase, sweepSummaryFile), data, 0644)
}

// writeComparison ranks the successful jobs from their persisted results and
// writes the comparison artifact and report.
func writeComparison(ctx context.Context, outputBase string, results []*sweep.JobResult) error {
	comparator := compare.NewComparator()
	compared := 0
	for _, jr := range results {
		if !jr.Success {
			log.Warnf("excluding failed job %s/%s from comparison: %s", jr.Provider, jr.Model, jr.Error)
			continue
		}
		manager := local.New(evalresult.WithBaseDir(jr.OutputDir))
		jobResults, err := manager.List(ctx)
		if err != nil {
			log.Warnf("excluding job %s/%s from comparison: %v", jr.Provider, jr.Model, err)
			continue
		}
		comparator.AddResults(jr.Provider+"/"+jr.Model, jobResults)
		compared++
	}
	if compared == 0 {
		log.Warnf("no successful jobs to compare")
		return nil
	}
	if err := comparator.Save(filepath.Join(outputBase, comparisonFile)); err != nil {
		return err
	}
	comparator.WriteReport(os.Stdout)
	return nil
}
