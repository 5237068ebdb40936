//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

// Package sweep expands a provider/model catalog into evaluation jobs and
// runs them against isolated output directories.
package sweep

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/goaleval/log"
)

// settingsKey is the reserved top-level catalog key excluded from expansion.
const settingsKey = "settings"

// Provider is one catalog entry with its models.
type Provider struct {
	// Name is the provider key from the catalog.
	Name string
	// Models lists the models to evaluate for this provider.
	Models []string
}

// Catalog is the parsed provider/model catalog, providers in file order.
type Catalog struct {
	// Providers lists the providers in the order they appear in the file.
	Providers []Provider
	// Settings carries the reserved settings mapping verbatim.
	Settings map[string]any
}

// Job is one (provider, model) evaluation unit of the sweep.
type Job struct {
	// Provider is the provider key.
	Provider string
	// Model is the model identifier.
	Model string
}

// providerEntry is the decoded shape of one provider value.
type providerEntry struct {
	Models []string `yaml:"models"`
}

// LoadCatalog reads the provider catalog. Top-level keys map provider names
// to their model lists; the reserved "settings" key and any key that does not
// carry a models list are excluded from expansion. Provider order follows the
// file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog %s must be a mapping", path)
	}

	catalog := &Catalog{}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		if key.Value == settingsKey {
			if err := value.Decode(&catalog.Settings); err != nil {
				return nil, fmt.Errorf("catalog %s: decode settings: %w", path, err)
			}
			continue
		}
		if value.Kind != yaml.MappingNode {
			log.Warnf("catalog key %q is not a provider entry, skipping", key.Value)
			continue
		}
		var entry providerEntry
		if err := value.Decode(&entry); err != nil {
			return nil, fmt.Errorf("catalog %s: decode provider %q: %w", path, key.Value, err)
		}
		if len(entry.Models) == 0 {
			log.Warnf("catalog provider %q has no models, skipping", key.Value)
			continue
		}
		catalog.Providers = append(catalog.Providers, Provider{Name: key.Value, Models: entry.Models})
	}
	if len(catalog.Providers) == 0 {
		return nil, fmt.Errorf("catalog %s contains no providers", path)
	}
	return catalog, nil
}

// Jobs expands the catalog into one job per (provider, model) pair,
// preserving catalog order.
func (c *Catalog) Jobs() []Job {
	var jobs []Job
	for _, provider := range c.Providers {
		for _, model := range provider.Models {
			jobs = append(jobs, Job{Provider: provider.Name, Model: model})
		}
	}
	return jobs
}

// sanitizeID strips path-unsafe characters from a provider or model
// identifier so it can serve as a directory name.
func sanitizeID(id string) string {
	id = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(id)
	id = strings.ReplaceAll(id, "..", "")
	id = strings.TrimSpace(id)
	if id == "" {
		return "unknown"
	}
	return id
}

// JobOutputDir derives the isolated output directory of a job under baseDir
// and verifies the resolved path stays inside baseDir.
func JobOutputDir(baseDir string, job Job) (string, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base output dir %q: %w", baseDir, err)
	}
	dir := filepath.Join(absBase, sanitizeID(job.Provider), sanitizeID(job.Model))
	rel, err := filepath.Rel(absBase, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("job output dir %q escapes base dir %q", dir, absBase)
	}
	return dir, nil
}
