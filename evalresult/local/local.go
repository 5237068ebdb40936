//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package local provides a local file storage implementation for evaluation results.
package local

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"trpc.group/trpc-go/goaleval/evalresult"
	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/log"
	"trpc.group/trpc-go/goaleval/status"
)

const (
	// ResultsFileName is the CSV file holding per-evaluation outcomes.
	ResultsFileName = "agent_goal_eval_results.csv"
	// SummaryFileName is the JSON file holding the run summary.
	SummaryFileName = "agent_goal_eval_summary.json"
)

var csvHeader = []string{
	"eval_id", "query", "response", "eval_type", "result",
	"conversation_group", "conversation_uuid", "error",
}

// manager implements the evalresult.Manager interface using local file storage.
type manager struct {
	baseDir string
	mu      sync.Mutex
}

// New creates a new local file evaluation result manager.
// Use functional options (see evalresult/option.go) to override the default directory.
func New(opt ...evalresult.Option) evalresult.Manager {
	opts := evalresult.NewOptions(opt...)
	return &manager{baseDir: opts.BaseDir}
}

// Save writes the results CSV and the summary JSON atomically.
func (m *manager) Save(ctx context.Context, results []*evalresult.Result) error {
	_ = ctx
	if len(results) == 0 {
		log.Warn("No results to save")
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}
	if err := m.writeAtomic(ResultsFileName, func(w io.Writer) error {
		return writeCSV(w, results)
	}); err != nil {
		return fmt.Errorf("save results csv: %w", err)
	}
	if err := m.writeAtomic(SummaryFileName, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryRecord{
			Stats:  evalresult.NewStats(results),
			Counts: evalresult.StatusCounts(results),
		})
	}); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	log.Infof("Results saved to %s", filepath.Join(m.baseDir, ResultsFileName))
	return nil
}

// List reads results back from the CSV file.
func (m *manager) List(ctx context.Context) ([]*evalresult.Result, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.Open(filepath.Join(m.baseDir, ResultsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*evalresult.Result{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

// summaryRecord is the persisted run summary.
type summaryRecord struct {
	// Stats carries the derived statistics of the run.
	Stats *evalresult.Stats `json:"stats"`
	// Counts is the PASS/FAIL/ERROR histogram consumed by sweep tooling.
	Counts map[string]int `json:"counts"`
}

func (m *manager) writeAtomic(name string, write func(io.Writer) error) error {
	path := filepath.Join(m.baseDir, name)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeCSV(w io.Writer, results []*evalresult.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			r.EvalID, r.Query, r.Response, string(r.EvalType), r.Status.String(),
			r.ConversationGroup, r.ConversationUUID, r.Error,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readCSV(r io.Reader) ([]*evalresult.Result, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read results csv: %w", err)
	}
	results := make([]*evalresult.Result, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		if len(record) != len(csvHeader) {
			return nil, fmt.Errorf("results csv row %d has %d columns, want %d", i, len(record), len(csvHeader))
		}
		results = append(results, &evalresult.Result{
			EvalID:            record[0],
			Query:             record[1],
			Response:          record[2],
			EvalType:          evalspec.EvalType(record[3]),
			Status:            status.Parse(record[4]),
			ConversationGroup: record[5],
			ConversationUUID:  record[6],
			Error:             record[7],
		})
	}
	return results, nil
}
