// Package scanner orchestrates the full analysis pipeline over a project
// tree: file discovery, concurrent extraction, call graph assembly, boundary
// scanning and risk prioritization.
package scanner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/seclens/seclens/boundary"
	"github.com/seclens/seclens/security"
)

// EntryPointRule declares which functions count as externally reachable.
// A rule matches when every non-empty criterion matches: file path glob,
// function name glob, and at least one of the listed annotation markers.
type EntryPointRule struct {
	File        string   `yaml:"file,omitempty" json:"file,omitempty"`
	Name        string   `yaml:"name,omitempty" json:"name,omitempty"`
	Annotations []string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// LearnerConfig tunes the data-access convention learner
type LearnerConfig struct {
	MinSupport            int  `yaml:"minSupport" json:"minSupport"`
	UseLearnedConventions bool `yaml:"useLearnedConventions" json:"useLearnedConventions"`
}

// Config is the project configuration driving a scan
type Config struct {
	Include     []string         `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude     []string         `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Parallelism int              `yaml:"parallelism" json:"parallelism"`
	EntryPoints []EntryPointRule `yaml:"entryPoints,omitempty" json:"entryPoints,omitempty"`
	Rules       []boundary.Rule  `yaml:"rules,omitempty" json:"rules,omitempty"`
	Learner     LearnerConfig    `yaml:"learner" json:"learner"`
	Weights     security.Weights `yaml:"weights" json:"weights"`
}

// DefaultConfig returns the built-in configuration: common framework route
// markers as entry points, learning enabled, default risk weights
func DefaultConfig() Config {
	return Config{
		Exclude: []string{
			"**/node_modules/**", "**/vendor/**", "**/dist/**", "**/build/**",
			"**/.git/**", "**/venv/**", "**/__pycache__/**",
			"**/*.test.ts", "**/*.spec.ts", "**/test_*.py", "**/*_test.py",
		},
		Parallelism: 8,
		EntryPoints: []EntryPointRule{
			{Name: "main"},
			{Annotations: []string{
				// Spring MVC
				"GetMapping", "PostMapping", "PutMapping", "DeleteMapping",
				"PatchMapping", "RequestMapping",
				// ASP.NET Core
				"HttpGet", "HttpPost", "HttpPut", "HttpDelete", "HttpPatch", "Route",
				// NestJS
				"Get", "Post", "Put", "Delete", "Patch",
				// Flask / FastAPI / Django REST
				"app.route", "app.get", "app.post", "app.put", "app.delete",
				"router.get", "router.post", "router.put", "router.delete",
				"api_view",
			}},
		},
		Learner: LearnerConfig{MinSupport: 2, UseLearnedConventions: true},
		Weights: security.DefaultWeights(),
	}
}

// LoadConfig reads a YAML configuration, layering it over the defaults so a
// partial file only overrides what it names
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %v: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	cfg.normalize()
	if _, err := boundary.NewRuleSet(cfg.Rules); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Parallelism < 1 {
		c.Parallelism = DefaultConfig().Parallelism
	}
	if c.Learner.MinSupport < 1 {
		c.Learner.MinSupport = 2
	}
	if c.Weights.Tier == nil {
		c.Weights = security.DefaultWeights()
	}
}

// includes reports whether a file path passes the include/exclude globs.
// An empty include list admits everything not excluded.
func (c *Config) includes(filePath string) bool {
	for _, pattern := range c.Exclude {
		if matchGlob(pattern, filePath) {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if matchGlob(pattern, filePath) {
			return true
		}
	}
	return false
}

// isEntryPoint reports whether a function matches any entry-point rule
func (c *Config) isEntryPoint(filePath, name, qualifiedName string, annotations []string) bool {
	for _, rule := range c.EntryPoints {
		if rule.File != "" && !matchGlob(rule.File, filePath) {
			continue
		}
		if rule.Name != "" && !matchName(rule.Name, name) && !matchName(rule.Name, qualifiedName) {
			continue
		}
		if len(rule.Annotations) > 0 && !matchAnnotations(rule.Annotations, annotations) {
			continue
		}
		if rule.File == "" && rule.Name == "" && len(rule.Annotations) == 0 {
			continue
		}
		return true
	}
	return false
}

func matchAnnotations(markers, annotations []string) bool {
	for _, annotation := range annotations {
		for _, marker := range markers {
			if strings.EqualFold(annotation, marker) {
				return true
			}
		}
	}
	return false
}

func matchName(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// matchGlob matches slash-separated paths with single-segment * wildcards
// and the ** cross-segment wildcard
func matchGlob(pattern, filePath string) bool {
	filePath = strings.TrimPrefix(strings.ReplaceAll(filePath, "\\", "/"), "/")
	pattern = strings.TrimPrefix(pattern, "/")
	return matchSegments(strings.Split(pattern, "/"), strings.Split(filePath, "/"))
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		if matchSegments(pattern[1:], segments) {
			return true
		}
		for i := range segments {
			if matchSegments(pattern[1:], segments[i+1:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	if ok, err := path.Match(pattern[0], segments[0]); err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}
