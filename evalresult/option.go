//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package evalresult

// DefaultBaseDir is the default directory for persisted evaluation results.
const DefaultBaseDir = "eval_output"

// Options holds configuration for result managers.
type Options struct {
	// BaseDir is the directory where results are stored.
	BaseDir string
}

// Option configures a result manager.
type Option func(*Options)

// NewOptions builds Options from the supplied Option list.
func NewOptions(opt ...Option) *Options {
	opts := &Options{BaseDir: DefaultBaseDir}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// WithBaseDir overrides the storage directory.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.BaseDir = dir
		}
	}
}
