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
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/goaleval/log"
)

// summaryKeys are the verdict counts every job summary must carry.
var summaryKeys = []string{"PASS", "FAIL", "ERROR"}

// RunConfig is the evaluation configuration of one job. It is passed by
// value so that overriding the agent under test for one job can never leak
// into another, and the judge configuration stays identical across the whole
// sweep.
type RunConfig struct {
	// AgentEndpoint is the agent service URL.
	AgentEndpoint string `yaml:"agent_endpoint" json:"agent_endpoint"`
	// AgentProvider is the provider of the agent under test.
	AgentProvider string `yaml:"agent_provider" json:"agent_provider"`
	// AgentModel is the model of the agent under test.
	AgentModel string `yaml:"agent_model" json:"agent_model"`
	// AgentTokenFile is the optional bearer token file for the agent service.
	AgentTokenFile string `yaml:"agent_token_file,omitempty" json:"agent_token_file,omitempty"`
	// JudgeProvider is the judge model provider, constant across the sweep.
	JudgeProvider string `yaml:"judge_provider,omitempty" json:"judge_provider,omitempty"`
	// JudgeModel is the judge model, constant across the sweep.
	JudgeModel string `yaml:"judge_model,omitempty" json:"judge_model,omitempty"`
	// EvalDataPath is the evaluation data file.
	EvalDataPath string `yaml:"eval_data" json:"eval_data"`
	// Kubeconfig is passed to setup, verify and cleanup scripts.
	Kubeconfig string `yaml:"kubeconfig,omitempty" json:"kubeconfig,omitempty"`
	// OutputDir is the per-job result directory, set by the orchestrator.
	OutputDir string `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
}

// ForJob derives the isolated configuration of one job. Only the agent
// provider/model and the output directory change.
func (c RunConfig) ForJob(job Job, outputDir string) RunConfig {
	c.AgentProvider = job.Provider
	c.AgentModel = job.Model
	c.OutputDir = outputDir
	return c
}

// RunJobFunc executes one evaluation pass and returns its verdict counts
// keyed by PASS, FAIL and ERROR.
type RunJobFunc func(ctx context.Context, cfg RunConfig) (map[string]int, error)

// JobResult records the outcome of one sweep job.
type JobResult struct {
	// Provider is the provider of this job.
	Provider string `json:"provider" yaml:"provider"`
	// Model is the model of this job.
	Model string `json:"model" yaml:"model"`
	// OutputDir is the job result directory.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	// Success reports whether the job produced a well-formed summary.
	Success bool `json:"success" yaml:"success"`
	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Summary holds the PASS/FAIL/ERROR counts of a successful job.
	Summary map[string]int `json:"summary,omitempty" yaml:"summary,omitempty"`
	// DurationSeconds is the job wall-clock duration.
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
}

// Summary aggregates a finished sweep.
type Summary struct {
	// TotalEvaluations is the number of jobs.
	TotalEvaluations int `json:"total_evaluations" yaml:"total_evaluations"`
	// Successful is the count of successful jobs.
	Successful int `json:"successful" yaml:"successful"`
	// Failed is the count of failed jobs.
	Failed int `json:"failed" yaml:"failed"`
	// SuccessRate is the job success rate as a percentage string.
	SuccessRate string `json:"success_rate" yaml:"success_rate"`
}

// Orchestrator runs one evaluation job per catalog (provider, model) pair.
type Orchestrator struct {
	catalog     *Catalog
	base        RunConfig
	baseDir     string
	run         RunJobFunc
	parallelism int
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithParallelism enables concurrent job execution on a bounded pool.
// Values below 2 keep the default sequential execution.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		o.parallelism = n
	}
}

// NewOrchestrator creates a sweep orchestrator over the catalog.
func NewOrchestrator(catalog *Catalog, base RunConfig, baseDir string, run RunJobFunc, opt ...Option) (*Orchestrator, error) {
	if catalog == nil || len(catalog.Providers) == 0 {
		return nil, fmt.Errorf("catalog with at least one provider is required")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("base output dir is required")
	}
	if run == nil {
		return nil, fmt.Errorf("run function is required")
	}
	o := &Orchestrator{
		catalog: catalog,
		base:    base,
		baseDir: baseDir,
		run:     run,
	}
	for _, op := range opt {
		op(o)
	}
	return o, nil
}

// Run executes every job of the catalog. A failed job is recorded and the
// sweep continues with the remaining jobs. Results come back in catalog
// order regardless of the execution mode.
func (o *Orchestrator) Run(ctx context.Context) []*JobResult {
	jobs := o.catalog.Jobs()
	results := make([]*JobResult, len(jobs))
	log.Infof("sweep: running %d jobs", len(jobs))

	if o.parallelism > 1 {
		o.runParallel(ctx, jobs, results)
	} else {
		for i, job := range jobs {
			results[i] = o.runJob(ctx, job)
		}
	}
	return results
}

func (o *Orchestrator) runParallel(ctx context.Context, jobs []Job, results []*JobResult) {
	pool, err := ants.NewPool(o.parallelism)
	if err != nil {
		log.Warnf("sweep: create worker pool: %v, falling back to sequential", err)
		for i, job := range jobs {
			results[i] = o.runJob(ctx, job)
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, job := range jobs {
		i, job := i, job
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = o.runJob(ctx, job)
		}); err != nil {
			wg.Done()
			results[i] = &JobResult{
				Provider: job.Provider,
				Model:    job.Model,
				Error:    fmt.Sprintf("submit job: %v", err),
			}
		}
	}
	wg.Wait()
}

// runJob executes one job with an isolated configuration and validates the
// summary it produces.
func (o *Orchestrator) runJob(ctx context.Context, job Job) (jr *JobResult) {
	jr = &JobResult{Provider: job.Provider, Model: job.Model}
	start := time.Now()
	defer func() {
		jr.DurationSeconds = time.Since(start).Seconds()
		if jr.Error != "" {
			log.Errorf("sweep job %s/%s failed: %s", job.Provider, job.Model, jr.Error)
		}
	}()
	log.Infof("sweep job %s/%s starting", job.Provider, job.Model)

	outputDir, err := JobOutputDir(o.baseDir, job)
	if err != nil {
		jr.Error = err.Error()
		return jr
	}
	jr.OutputDir = outputDir

	summary, err := o.run(ctx, o.base.ForJob(job, outputDir))
	if err != nil {
		jr.Error = fmt.Sprintf("evaluation failed: %v", err)
		return jr
	}
	if summary == nil {
		jr.Error = "evaluation returned no summary"
		return jr
	}
	for _, key := range summaryKeys {
		if _, ok := summary[key]; !ok {
			jr.Error = fmt.Sprintf("invalid summary structure: missing %q", key)
			return jr
		}
	}
	jr.Success = true
	jr.Summary = summary
	return jr
}

// Summarize aggregates the job results of a finished sweep.
func Summarize(results []*JobResult) *Summary {
	s := &Summary{TotalEvaluations: len(results)}
	for _, jr := range results {
		if jr.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	rate := 0.0
	if s.TotalEvaluations > 0 {
		rate = float64(s.Successful) / float64(s.TotalEvaluations) * 100
	}
	s.SuccessRate = fmt.Sprintf("%.1f%%", rate)
	return s
}
