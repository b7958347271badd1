package scanner

import (
	"context"
	"fmt"
	"sort"

	"github.com/seclens/seclens/boundary"
	"github.com/seclens/seclens/callgraph"
	"github.com/seclens/seclens/extractor/facts"
	"github.com/seclens/seclens/repository"
	"github.com/seclens/seclens/security"
)

// Project is a scan session over one project tree. It keeps per-file facts
// and raw sources so a changed file can be rescanned without re-reading the
// rest of the tree; everything downstream of extraction is recomputed per
// Result call from the current facts.
type Project struct {
	scanner  *Scanner
	repo     *repository.Repository
	builder  *callgraph.Builder
	files    map[string]*facts.FileResult
	sources  map[string][]byte
	location string
}

// Files returns the current extraction results sorted by path
func (p *Project) Files() []*facts.FileResult {
	paths := make([]string, 0, len(p.files))
	for path := range p.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	out := make([]*facts.FileResult, 0, len(paths))
	for _, path := range paths {
		out = append(out, p.files[path])
	}
	return out
}

// RescanFile re-reads and re-extracts a single file, replacing its facts.
// A file that no longer exists is removed from the session.
func (p *Project) RescanFile(ctx context.Context, path string) error {
	src, err := p.scanner.fs.DownloadWithURL(ctx, path)
	if err != nil {
		p.builder.RemoveFile(path)
		delete(p.files, path)
		delete(p.sources, path)
		p.scanner.logger.InfoContext(ctx, "file removed from scan", "file", path)
		return nil
	}
	result := p.scanner.registry.ExtractFile(ctx, src, path)
	p.files[path] = result
	p.sources[path] = src
	p.builder.UpdateFile(path, result)
	return nil
}

// Result assembles the call graph, runs the boundary scan and prioritizes
// access points from the session's current facts
func (p *Project) Result(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	graph := p.builder.Graph()
	entryPoints := p.markEntryPoints(graph)

	ruleSet, err := boundary.NewRuleSet(p.scanner.config.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile boundary rules: %w", err)
	}
	options := []boundary.ScannerOption{boundary.WithRules(ruleSet)}
	if p.scanner.config.Learner.UseLearnedConventions {
		options = append(options, boundary.WithLearner(boundary.NewLearner(p.scanner.config.Learner.MinSupport)))
	}

	files := p.Files()
	inputs := make([]boundary.Input, 0, len(files))
	for _, file := range files {
		inputs = append(inputs, boundary.Input{Source: p.sources[file.Path], File: file})
	}
	boundaryResult := boundary.NewScanner(options...).Scan(inputs)

	prioritized, summary := security.Prioritize(graph, entryPoints, boundaryResult.Map, p.scanner.config.Weights)

	stats := graph.Stats()
	p.scanner.logger.InfoContext(ctx, "scan complete",
		"files", len(files),
		"nodes", stats.Nodes,
		"resolved", stats.Resolved,
		"ambiguous", stats.Ambiguous,
		"unresolved", stats.Unresolved,
		"accessPoints", len(boundaryResult.Map.AccessPoints()),
		"violations", len(boundaryResult.Violations))

	ids := make([]string, 0, len(entryPoints))
	for id := range entryPoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Result{
		Repository:  p.repo,
		Files:       files,
		Graph:       graph,
		EntryPoints: ids,
		Boundary:    boundaryResult,
		Prioritized: prioritized,
		Summary:     summary,
	}, nil
}

// markEntryPoints flags graph nodes matching the configured entry-point
// rules and returns their ids
func (p *Project) markEntryPoints(graph *callgraph.Graph) map[string]bool {
	entryPoints := map[string]bool{}
	for _, node := range graph.Nodes() {
		node.IsEntryPoint = p.scanner.config.isEntryPoint(node.File, node.Name, node.QualifiedName, node.Annotations)
		if node.IsEntryPoint {
			entryPoints[node.ID] = true
		}
	}
	return entryPoints
}
