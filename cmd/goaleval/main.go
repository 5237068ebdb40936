//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package main runs one agent goal evaluation pass against a single
// provider/model pair and saves the results.
package main

import (
	"context"
	"flag"
	"os"

	"trpc.group/trpc-go/goaleval"
	"trpc.group/trpc-go/goaleval/agent"
	"trpc.group/trpc-go/goaleval/evalresult"
	"trpc.group/trpc-go/goaleval/evalresult/local"
	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/judge"
	judgeopenai "trpc.group/trpc-go/goaleval/judge/openai"
	"trpc.group/trpc-go/goaleval/log"
	"trpc.group/trpc-go/goaleval/script"
	"trpc.group/trpc-go/goaleval/status"
)

var (
	evalDataPath   = flag.String("eval-data", "eval_data.yaml", "Path to the evaluation data file")
	agentEndpoint  = flag.String("agent-endpoint", "http://localhost:8080", "Agent service endpoint")
	agentProvider  = flag.String("agent-provider", "", "Provider of the agent under test")
	agentModel     = flag.String("agent-model", "", "Model of the agent under test")
	agentTokenFile = flag.String("agent-token-file", "", "File holding the agent service bearer token")
	judgeProvider  = flag.String("judge-provider", "", "Judge model provider (judge-llm evaluations)")
	judgeModel     = flag.String("judge-model", "", "Judge model name (judge-llm evaluations)")
	kubeconfig     = flag.String("kubeconfig", "", "Kubeconfig passed to setup/verify/cleanup scripts")
	resultDir      = flag.String("result-dir", evalresult.DefaultBaseDir, "Directory for result artifacts")
	logLevel       = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	log.SetLevel(*logLevel)

	if *agentProvider == "" || *agentModel == "" {
		log.Fatalf("both -agent-provider and -agent-model are required")
	}

	ds, err := evalspec.Load(*evalDataPath)
	if err != nil {
		log.Fatalf("load evaluation data: %v", err)
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

	opts := []goaleval.Option{
		goaleval.WithResultManager(local.New(evalresult.WithBaseDir(*resultDir))),
	}
	if *kubeconfig != "" {
		scripts, err := script.NewRunner(script.WithKubeconfig(*kubeconfig))
		if err != nil {
			log.Fatalf("create script runner: %v", err)
		}
		opts = append(opts, goaleval.WithScriptRunner(scripts))
	}
	if *judgeProvider != "" && *judgeModel != "" {
		backend, err := judgeopenai.New(*judgeProvider)
		if err != nil {
			log.Fatalf("configure judge backend: %v", err)
		}
		manager, err := judge.NewManager(*judgeProvider, *judgeModel, backend)
		if err != nil {
			log.Fatalf("create judge manager: %v", err)
		}
		opts = append(opts, goaleval.WithJudge(manager))
	}

	runner, err := goaleval.NewRunner(*agentProvider, *agentModel, client, opts...)
	if err != nil {
		log.Fatalf("create runner: %v", err)
	}

	results, err := runner.Run(context.Background(), ds)
	if err != nil {
		log.Fatalf("evaluation run failed: %v", err)
	}
	for _, result := range results {
		if result.Status == status.EvalStatusError {
			os.Exit(1)
		}
	}
}
