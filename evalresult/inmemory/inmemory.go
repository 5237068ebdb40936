//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory evaluation result manager.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"trpc.group/trpc-go/goaleval/evalresult"
)

// manager implements evalresult.Manager backed by memory, intended for tests
// and short-lived runs.
type manager struct {
	mu      sync.Mutex
	results []*evalresult.Result
}

// New creates a new in-memory result manager.
func New() evalresult.Manager {
	return &manager{}
}

// Save appends the results to the in-memory store.
func (m *manager) Save(ctx context.Context, results []*evalresult.Result) error {
	_ = ctx
	for _, r := range results {
		if r == nil {
			return errors.New("result is nil")
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, results...)
	return nil
}

// List returns a copy of all stored results.
func (m *manager) List(ctx context.Context) ([]*evalresult.Result, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*evalresult.Result, len(m.results))
	copy(out, m.results)
	return out, nil
}
