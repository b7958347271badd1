package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"golang.org/x/sync/errgroup"

	"github.com/seclens/seclens/boundary"
	"github.com/seclens/seclens/callgraph"
	"github.com/seclens/seclens/extractor"
	"github.com/seclens/seclens/extractor/facts"
	"github.com/seclens/seclens/repository"
	"github.com/seclens/seclens/security"
)

// Result is the aggregate output of one scan
type Result struct {
	Repository  *repository.Repository
	Files       []*facts.FileResult // sorted by path
	Graph       *callgraph.Graph
	EntryPoints []string // entry-point node ids, sorted
	Boundary    *boundary.ScanResult
	Prioritized []security.PrioritizedAccessPoint
	Summary     security.Summary
}

// Scanner drives the full pipeline over a project tree
type Scanner struct {
	fs       afs.Service
	logger   *slog.Logger
	config   Config
	registry *extractor.Registry
	detector *repository.Detector
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the structured logger; the default discards nothing and
// writes to the process default handler
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithFileSystem overrides the file service, letting tests scan mem:// trees
func WithFileSystem(fs afs.Service) Option {
	return func(s *Scanner) { s.fs = fs }
}

// New creates a scanner with the given configuration
func New(config Config, options ...Option) *Scanner {
	config.normalize()
	s := &Scanner{
		fs:       afs.New(),
		logger:   slog.Default(),
		config:   config,
		registry: extractor.NewRegistry(),
		detector: repository.New(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Scan analyzes every supported source file under location and returns the
// full pipeline output. Cancellation is cooperative: the context is checked
// between file extractions and before graph assembly; on cancellation
// partial results are discarded and the context error is returned.
func (s *Scanner) Scan(ctx context.Context, location string) (*Result, error) {
	project, err := s.NewProject(ctx, location)
	if err != nil {
		return nil, err
	}
	return project.Result(ctx)
}

// NewProject discovers and extracts all files under location and returns a
// Project session that supports incremental rescans of changed files
func (s *Scanner) NewProject(ctx context.Context, location string) (*Project, error) {
	paths, err := s.listSources(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list %v: %w", location, err)
	}
	s.logger.InfoContext(ctx, "scan started", "location", location, "files", len(paths))

	repo, err := s.detector.DetectRepository(location)
	if err != nil {
		// detection is best-effort; a missing manifest is not a scan failure
		s.logger.WarnContext(ctx, "repository detection failed", "location", location, "error", err)
	}

	project := &Project{
		scanner:  s,
		repo:     repo,
		builder:  callgraph.NewBuilder(),
		files:    map[string]*facts.FileResult{},
		sources:  map[string][]byte{},
		location: location,
	}

	// slots keep aggregate order independent of completion order
	results := make([]*facts.FileResult, len(paths))
	sources := make([][]byte, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.Parallelism)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			src, err := s.fs.DownloadWithURL(groupCtx, path)
			if err != nil {
				return fmt.Errorf("failed to read %v: %w", path, err)
			}
			result := s.registry.ExtractFile(groupCtx, src, path)
			if result.Quality.Low() {
				s.logger.DebugContext(groupCtx, "low quality extraction",
					"file", path, "method", result.Quality.Method, "reason", result.Quality.Reason)
			}
			results[i] = result
			sources[i] = src
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// cancelled after extraction, before assembly: discard everything
		return nil, err
	}

	for i, result := range results {
		project.files[result.Path] = result
		project.sources[result.Path] = sources[i]
		project.builder.AddFile(result)
	}
	return project, nil
}

// listSources lists supported source files under location recursively,
// applying the include/exclude filters, and returns them sorted
func (s *Scanner) listSources(ctx context.Context, location string) ([]string, error) {
	var out []string
	var walk func(string) error
	walk = func(URL string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		objects, err := s.fs.List(ctx, URL)
		if err != nil {
			return err
		}
		for _, object := range objects {
			if isSelf(object, URL) {
				continue
			}
			if object.IsDir() {
				if err := walk(object.URL()); err != nil {
					return err
				}
				continue
			}
			path := object.URL()
			if _, ok := facts.DetectLanguage(path); !ok {
				continue
			}
			if !s.config.includes(path) {
				continue
			}
			out = append(out, path)
		}
		return nil
	}
	if err := walk(location); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// isSelf filters the listed location out of its own listing
func isSelf(object storage.Object, URL string) bool {
	trimmed := strings.TrimSuffix(object.URL(), "/")
	return trimmed == strings.TrimSuffix(URL, "/")
}
