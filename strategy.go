//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package goaleval

import (
	"context"
	"fmt"
	"strings"

	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/judge"
)

// evaluate dispatches the agent response to the verdict strategy selected by
// the eval type. The strategy set is closed: validation upstream guarantees
// one of the three known types, anything else is an error rather than a
// silent FAIL.
func (r *Runner) evaluate(ctx context.Context, cfg *evalspec.EvalConfig, response string) (bool, error) {
	switch cfg.EvalType {
	case evalspec.EvalTypeSubString:
		return evaluateSubString(cfg.ExpectedKeywords, response), nil
	case evalspec.EvalTypeScript:
		return r.evaluateScript(ctx, cfg.EvalVerifyScript)
	case evalspec.EvalTypeJudgeLLM:
		return r.evaluateJudge(ctx, cfg, response)
	default:
		return false, fmt.Errorf("unknown eval type %q", cfg.EvalType)
	}
}

// evaluateSubString passes when any expected keyword occurs in the response,
// case-insensitively. Without keywords it fails, never errors.
func evaluateSubString(keywords []string, response string) bool {
	lower := strings.ToLower(response)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// evaluateScript delegates the verdict to the verify script exit code. An
// executor failure, as opposed to a nonzero exit, is an error.
func (r *Runner) evaluateScript(ctx context.Context, scriptPath string) (bool, error) {
	outcome, err := r.scripts.RunNoCheck(ctx, scriptPath)
	if err != nil {
		return false, fmt.Errorf("verify script execution failed: %w", err)
	}
	return outcome.ExitCode == 0, nil
}

// evaluateJudge asks the judge model whether the response answers the query
// as well as the expected response does.
func (r *Runner) evaluateJudge(ctx context.Context, cfg *evalspec.EvalConfig, response string) (bool, error) {
	if r.judge == nil {
		return false, judge.ErrNotAvailable
	}
	return r.judge.JudgeCorrectness(ctx, cfg.EvalQuery, cfg.ExpectedResponse, response)
}
