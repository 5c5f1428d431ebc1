package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sophialabs/stubhttp/internal/domain/scenario"
)

var _ scenario.Repository = (*YAMLRepository)(nil)

// YAMLRepository loads fixtures from the .yaml and .yml files of a
// directory tree. Files are visited in lexical order. A file holds either a
// single fixture or a list of them.
type YAMLRepository struct {
	rootDir  string
	resolver *IncludeResolver
}

// NewYAMLRepository creates a repository rooted at rootDir.
func NewYAMLRepository(rootDir string) (*YAMLRepository, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixture root %s is not a directory", absRoot)
	}
	return &YAMLRepository{rootDir: absRoot, resolver: NewIncludeResolver(absRoot)}, nil
}

// Root returns the absolute root directory.
func (r *YAMLRepository) Root() string {
	return r.rootDir
}

// LoadAll parses every fixture file under the root.
func (r *YAMLRepository) LoadAll(ctx context.Context) ([]*scenario.Scenario, error) {
	var scenarios []*scenario.Scenario

	err := filepath.WalkDir(r.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		loaded, err := r.loadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		scenarios = append(scenarios, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk fixture directory: %w", err)
	}
	return scenarios, nil
}

func (r *YAMLRepository) loadFile(path string) ([]*scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// Empty file.
		return nil, nil
	}
	if err := r.resolver.ResolveIncludes(&doc, filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to resolve includes: %w", err)
	}

	content := doc.Content[0]
	if content.Kind != yaml.SequenceNode {
		s, err := decodeFixture(content)
		if err != nil {
			return nil, err
		}
		s.SourceFile, s.SourceIndex = path, -1
		return []*scenario.Scenario{s}, nil
	}

	scenarios := make([]*scenario.Scenario, 0, len(content.Content))
	for i, item := range content.Content {
		s, err := decodeFixture(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		s.SourceFile, s.SourceIndex = path, i
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func decodeFixture(node *yaml.Node) (*scenario.Scenario, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: fixture must be a mapping", node.Line)
	}
	var f fixture
	if err := node.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return f.toScenario(), nil
}

func (f *fixture) toScenario() *scenario.Scenario {
	s := &scenario.Scenario{
		ID:       f.ID,
		Name:     f.Name,
		Priority: f.Priority,
		Response: scenario.Response{
			Status:      f.Response.Status,
			Headers:     f.Response.Headers,
			Body:        f.Response.Body,
			BodyFile:    f.Response.BodyFile,
			ContentType: f.Response.ContentType,
			Engine:      f.Response.Engine,
		},
	}

	if w := f.When; w != nil {
		s.When = &scenario.WhenClause{
			Method:  w.Method,
			Path:    w.Path,
			Route:   w.Route,
			Headers: w.Headers,
			Query:   w.Query,
			Body:    w.Body.toClause(),
			Expr:    w.Expr,
		}
	}

	if p := f.Policy; p != nil {
		s.Policy = &scenario.Policy{Once: p.Once}
		if p.RateLimit != nil {
			s.Policy.RateLimit = &scenario.RateLimit{Rate: p.RateLimit.Rate, Burst: p.RateLimit.Burst, Key: p.RateLimit.Key}
		}
		if p.Latency != nil {
			s.Policy.Latency = &scenario.Latency{FixedMs: p.Latency.FixedMs, JitterMs: p.Latency.JitterMs}
		}
	}
	return s
}

func (b *fixtureBody) toClause() *scenario.BodyClause {
	if b == nil {
		return nil
	}
	bc := &scenario.BodyClause{ContentType: b.ContentType, Not: b.Not.toClause()}
	for _, c := range b.Conditions {
		bc.Conditions = append(bc.Conditions, scenario.BodyCondition{Extractor: c.Extractor, Matcher: c.Matcher})
	}
	for i := range b.All {
		bc.All = append(bc.All, *b.All[i].toClause())
	}
	for i := range b.Any {
		bc.Any = append(bc.Any, *b.Any[i].toClause())
	}
	return bc
}
