//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package evalresult provides evaluation results and their aggregation.
package evalresult

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/status"
)

// Result is the immutable outcome of a single evaluation.
type Result struct {
	// EvalID identifies the evaluation.
	EvalID string `json:"eval_id" yaml:"eval_id"`
	// Query is the text that was sent to the agent.
	Query string `json:"query" yaml:"query"`
	// Response is the agent response, empty when the agent was never queried.
	Response string `json:"response" yaml:"response"`
	// EvalType is the strategy that produced the verdict.
	EvalType evalspec.EvalType `json:"eval_type" yaml:"eval_type"`
	// Status is the verdict of this evaluation.
	Status status.EvalStatus `json:"-" yaml:"-"`
	// ConversationGroup is the enclosing conversation group, if any.
	ConversationGroup string `json:"conversation_group,omitempty" yaml:"conversation_group,omitempty"`
	// ConversationUUID is the shared conversation identifier, if any.
	ConversationUUID string `json:"conversation_uuid,omitempty" yaml:"conversation_uuid,omitempty"`
	// Error holds the failure description, present only for ERROR results.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewResult creates a PASS or FAIL result for the evaluation.
func NewResult(cfg *evalspec.EvalConfig, response string, passed bool) *Result {
	return &Result{
		EvalID:            cfg.EvalID,
		Query:             cfg.EvalQuery,
		Response:          response,
		EvalType:          cfg.EvalType,
		Status:            status.FromBool(passed),
		ConversationGroup: cfg.ConversationGroup,
		ConversationUUID:  cfg.ConversationUUID,
	}
}

// NewErrorResult creates an ERROR result carrying the failure description.
func NewErrorResult(cfg *evalspec.EvalConfig, errMsg string) *Result {
	return &Result{
		EvalID:            cfg.EvalID,
		Query:             cfg.EvalQuery,
		EvalType:          cfg.EvalType,
		Status:            status.EvalStatusError,
		ConversationGroup: cfg.ConversationGroup,
		ConversationUUID:  cfg.ConversationUUID,
		Error:             errMsg,
	}
}

// resultJSON is the serialized form of Result with a textual verdict.
type resultJSON struct {
	EvalID            string            `json:"eval_id"`
	Query             string            `json:"query"`
	Response          string            `json:"response"`
	EvalType          evalspec.EvalType `json:"eval_type"`
	Result            string            `json:"result"`
	ConversationGroup string            `json:"conversation_group,omitempty"`
	ConversationUUID  string            `json:"conversation_uuid,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// MarshalJSON keeps the verdict in its textual PASS/FAIL/ERROR form.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(&resultJSON{
		EvalID:            r.EvalID,
		Query:             r.Query,
		Response:          r.Response,
		EvalType:          r.EvalType,
		Result:            r.Status.String(),
		ConversationGroup: r.ConversationGroup,
		ConversationUUID:  r.ConversationUUID,
		Error:             r.Error,
	})
}

// UnmarshalJSON restores the verdict from its textual form.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	*r = Result{
		EvalID:            raw.EvalID,
		Query:             raw.Query,
		Response:          raw.Response,
		EvalType:          raw.EvalType,
		Status:            status.Parse(raw.Result),
		ConversationGroup: raw.ConversationGroup,
		ConversationUUID:  raw.ConversationUUID,
		Error:             raw.Error,
	}
	return nil
}

// Manager defines the interface for persisting evaluation results.
type Manager interface {
	// Save stores the results and the derived statistics of one run.
	Save(ctx context.Context, results []*Result) error
	// List returns all stored results.
	List(ctx context.Context) ([]*Result, error)
}
