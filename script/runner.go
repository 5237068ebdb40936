//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package script executes setup, verification and cleanup scripts.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ExecutionError reports a script execution failure.
type ExecutionError struct {
	// Script is the path of the script that failed.
	Script string
	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("script %s: %s", e.Script, e.Message)
}

// Outcome captures one script invocation.
type Outcome struct {
	// ExitCode is the script exit status.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Runner executes scripts with an isolated environment per invocation.
type Runner struct {
	kubeconfig string
}

// Option configures the script runner.
type Option func(*Runner)

// WithKubeconfig injects the KUBECONFIG variable into every script invocation.
// The file must exist; a missing kubeconfig is a configuration error.
func WithKubeconfig(path string) Option {
	return func(r *Runner) {
		r.kubeconfig = path
	}
}

// NewRunner creates a script runner.
func NewRunner(opt ...Option) (*Runner, error) {
	r := &Runner{}
	for _, o := range opt {
		o(r)
	}
	if r.kubeconfig != "" {
		abs, err := filepath.Abs(r.kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("resolve kubeconfig %q: %w", r.kubeconfig, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("kubeconfig file not found: %s", abs)
		}
		r.kubeconfig = abs
	}
	return r, nil
}

// Run executes the script and fails with an ExecutionError on nonzero exit.
func (r *Runner) Run(ctx context.Context, scriptPath string) (*Outcome, error) {
	outcome, err := r.RunNoCheck(ctx, scriptPath)
	if err != nil {
		return nil, err
	}
	if outcome.ExitCode != 0 {
		return nil, &ExecutionError{
			Script:  scriptPath,
			Message: fmt.Sprintf("exited with code %d: %s", outcome.ExitCode, outcome.Stderr),
		}
	}
	return outcome, nil
}

// RunNoCheck executes the script and reports the exit code without treating a
// nonzero exit as an error. Executor failures still surface as errors.
func (r *Runner) RunNoCheck(ctx context.Context, scriptPath string) (*Outcome, error) {
	info, err := os.Stat(scriptPath)
	if err != nil {
		return nil, &ExecutionError{Script: scriptPath, Message: "script not found"}
	}
	if info.IsDir() {
		return nil, &ExecutionError{Script: scriptPath, Message: "script is a directory"}
	}
	// Scripts are distributed without the executable bit more often than not.
	if err := os.Chmod(scriptPath, 0o755); err != nil {
		return nil, &ExecutionError{Script: scriptPath, Message: fmt.Sprintf("chmod: %v", err)}
	}
	cmd := exec.CommandContext(ctx, scriptPath)
	// Copy the process environment so concurrent invocations never share a
	// mutable environment map.
	env := os.Environ()
	if r.kubeconfig != "" {
		env = append(env, "KUBECONFIG="+r.kubeconfig)
	}
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &ExecutionError{Script: scriptPath, Message: fmt.Sprintf("run: %v", err)}
		}
	}
	return &Outcome{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
