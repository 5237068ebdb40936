//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package evalspec

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/goaleval/log"
)

// DataSet holds the validated content of one evaluation data file.
type DataSet struct {
	// Conversations keeps the conversation groups in file order.
	Conversations []*ConversationConfig
}

// Evals returns every evaluation of the data set in execution order.
func (d *DataSet) Evals() []*EvalConfig {
	var out []*EvalConfig
	for _, conv := range d.Conversations {
		out = append(out, conv.Conversation...)
	}
	return out
}

// entryNode distinguishes conversation groups from standalone evaluations
// while preserving the raw node for decoding.
type entryNode struct {
	ConversationGroup string     `yaml:"conversation_group"`
	Conversation      []yaml.Node `yaml:"conversation"`
}

// Load reads and validates an evaluation data file. Any invalid entry rejects
// the entire load with an error naming the offending field.
func Load(path string) (*DataSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read eval data file: %w", err)
	}
	var nodes []yaml.Node
	if err := yaml.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("parse eval data file %s: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("eval data file %s contains no evaluations", path)
	}
	ds := &DataSet{}
	var loadErr *multierror.Error
	for i := range nodes {
		conv, err := decodeEntry(&nodes[i], i)
		if err != nil {
			loadErr = multierror.Append(loadErr, err)
			continue
		}
		ds.Conversations = append(ds.Conversations, conv)
	}
	if err := loadErr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid eval data file %s: %w", path, err)
	}
	log.Infof("Loaded %d conversation group(s), %d evaluation(s) from %s",
		len(ds.Conversations), len(ds.Evals()), path)
	return ds, nil
}

// decodeEntry decodes one top-level entry. Entries carrying a conversation key
// are conversation groups; anything else is a standalone evaluation wrapped in
// a single-eval group without scripts or a conversation identity.
func decodeEntry(node *yaml.Node, idx int) (*ConversationConfig, error) {
	var probe entryNode
	if err := node.Decode(&probe); err != nil {
		return nil, fmt.Errorf("entry %d: %w", idx, err)
	}
	if probe.ConversationGroup != "" || len(probe.Conversation) > 0 {
		conv := &ConversationConfig{}
		if err := node.Decode(conv); err != nil {
			return nil, fmt.Errorf("entry %d: %w", idx, err)
		}
		if err := conv.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", idx, err)
		}
		return conv, nil
	}
	eval := &EvalConfig{}
	if err := node.Decode(eval); err != nil {
		return nil, fmt.Errorf("entry %d: %w", idx, err)
	}
	if err := eval.Validate(); err != nil {
		return nil, fmt.Errorf("entry %d: %w", idx, err)
	}
	return &ConversationConfig{
		Conversation: []*EvalConfig{eval},
		Standalone:   true,
	}, nil
}
