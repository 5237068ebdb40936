//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package evalspec provides validated evaluation specifications.
package evalspec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EvalType identifies the strategy used to judge an agent response.
type EvalType string

const (
	// EvalTypeJudgeLLM scores the response with a judge model.
	EvalTypeJudgeLLM EvalType = "judge-llm"
	// EvalTypeScript delegates the verdict to a verification script.
	EvalTypeScript EvalType = "script"
	// EvalTypeSubString checks the response for expected keywords.
	EvalTypeSubString EvalType = "sub-string"
)

// ValidEvalTypes lists the accepted evaluation types.
var ValidEvalTypes = []EvalType{EvalTypeJudgeLLM, EvalTypeScript, EvalTypeSubString}

// EvalConfig describes a single evaluation unit.
type EvalConfig struct {
	// EvalID uniquely identifies this evaluation within its conversation group.
	EvalID string `yaml:"eval_id" json:"eval_id"`
	// EvalQuery is the text sent to the agent.
	EvalQuery string `yaml:"eval_query" json:"eval_query"`
	// EvalType selects the verdict strategy.
	EvalType EvalType `yaml:"eval_type" json:"eval_type"`
	// ExpectedResponse is the reference answer, required for judge-llm.
	ExpectedResponse string `yaml:"expected_response,omitempty" json:"expected_response,omitempty"`
	// ExpectedKeywords are the acceptable substrings, required for sub-string.
	ExpectedKeywords []string `yaml:"expected_keywords,omitempty" json:"expected_keywords,omitempty"`
	// EvalVerifyScript is the verification script path, required for script.
	EvalVerifyScript string `yaml:"eval_verify_script,omitempty" json:"eval_verify_script,omitempty"`
	// Description is informational only.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// ConversationGroup is assigned by the enclosing conversation, never self-assigned.
	ConversationGroup string `yaml:"-" json:"conversation_group,omitempty"`
	// ConversationUUID is assigned by the enclosing conversation, never self-assigned.
	ConversationUUID string `yaml:"-" json:"conversation_uuid,omitempty"`
}

// Validate checks all cross-field invariants of the evaluation config.
// It normalizes keywords and the verify script path in place.
func (c *EvalConfig) Validate() error {
	if strings.TrimSpace(c.EvalID) == "" {
		return fmt.Errorf("eval_id is required")
	}
	if strings.TrimSpace(c.EvalQuery) == "" {
		return fmt.Errorf("eval %s: eval_query is required", c.EvalID)
	}
	if !validEvalType(c.EvalType) {
		return fmt.Errorf("eval %s: eval_type must be one of %v, got %q", c.EvalID, ValidEvalTypes, c.EvalType)
	}
	c.ExpectedKeywords = stripKeywords(c.ExpectedKeywords)
	switch c.EvalType {
	case EvalTypeJudgeLLM:
		if strings.TrimSpace(c.ExpectedResponse) == "" {
			return fmt.Errorf("eval %s: eval_type 'judge-llm' requires non-empty 'expected_response'", c.EvalID)
		}
		if len(c.ExpectedKeywords) > 0 || c.EvalVerifyScript != "" {
			return fmt.Errorf("eval %s: eval_type 'judge-llm' accepts only 'expected_response'", c.EvalID)
		}
	case EvalTypeSubString:
		if len(c.ExpectedKeywords) == 0 {
			return fmt.Errorf("eval %s: eval_type 'sub-string' requires non-empty 'expected_keywords'", c.EvalID)
		}
		if c.ExpectedResponse != "" || c.EvalVerifyScript != "" {
			return fmt.Errorf("eval %s: eval_type 'sub-string' accepts only 'expected_keywords'", c.EvalID)
		}
	case EvalTypeScript:
		if c.ExpectedResponse != "" || len(c.ExpectedKeywords) > 0 {
			return fmt.Errorf("eval %s: eval_type 'script' accepts only 'eval_verify_script'", c.EvalID)
		}
		path, err := ValidateScriptPath(c.EvalVerifyScript, "eval_verify_script")
		if err != nil {
			return fmt.Errorf("eval %s: %w", c.EvalID, err)
		}
		c.EvalVerifyScript = path
	}
	return nil
}

// ConversationConfig groups an ordered sequence of evaluations sharing one UUID.
type ConversationConfig struct {
	// ConversationGroup identifies the conversation group.
	ConversationGroup string `yaml:"conversation_group" json:"conversation_group"`
	// ConversationUUID is generated once at construction and propagated to every eval.
	ConversationUUID string `yaml:"-" json:"conversation_uuid"`
	// Conversation holds the ordered evaluations of this group.
	Conversation []*EvalConfig `yaml:"conversation" json:"conversation"`
	// Description is informational only.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// SetupScript runs before the first evaluation of the group.
	SetupScript string `yaml:"setup_script,omitempty" json:"setup_script,omitempty"`
	// CleanupScript runs after the last evaluation of the group.
	CleanupScript string `yaml:"cleanup_script,omitempty" json:"cleanup_script,omitempty"`
	// Standalone marks a wrapper around a top-level evaluation that belongs to
	// no conversation group. Wrappers carry no UUID and no scripts.
	Standalone bool `yaml:"-" json:"-"`
}

// Validate checks the conversation invariants, generates the conversation UUID
// if absent and propagates group identity to every contained evaluation.
func (c *ConversationConfig) Validate() error {
	c.ConversationGroup = strings.TrimSpace(c.ConversationGroup)
	if c.ConversationGroup == "" {
		return fmt.Errorf("conversation_group is required")
	}
	if len(c.Conversation) == 0 {
		return fmt.Errorf("conversation %q must have at least one evaluation", c.ConversationGroup)
	}
	for _, field := range []struct {
		name string
		path *string
	}{
		{"setup_script", &c.SetupScript},
		{"cleanup_script", &c.CleanupScript},
	} {
		if *field.path == "" {
			continue
		}
		path, err := ValidateScriptPath(*field.path, field.name)
		if err != nil {
			return fmt.Errorf("conversation %q: %w", c.ConversationGroup, err)
		}
		*field.path = path
	}
	if c.ConversationUUID == "" {
		c.ConversationUUID = uuid.NewString()
	}
	seen := make(map[string]struct{}, len(c.Conversation))
	for _, eval := range c.Conversation {
		if err := eval.Validate(); err != nil {
			return fmt.Errorf("conversation %q: %w", c.ConversationGroup, err)
		}
		if _, ok := seen[eval.EvalID]; ok {
			return fmt.Errorf("conversation %q: duplicate eval_id %q", c.ConversationGroup, eval.EvalID)
		}
		seen[eval.EvalID] = struct{}{}
		eval.ConversationGroup = c.ConversationGroup
		eval.ConversationUUID = c.ConversationUUID
	}
	return nil
}

// ValidateScriptPath checks that the script exists, is a regular file and
// returns its absolute path.
func ValidateScriptPath(path, field string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%s cannot be empty", field)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%s: resolve path %q: %w", field, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s file not found: %s", field, abs)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is not a file: %s", field, abs)
	}
	return abs, nil
}

func validEvalType(t EvalType) bool {
	for _, v := range ValidEvalTypes {
		if t == v {
			return true
		}
	}
	return false
}

func stripKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
