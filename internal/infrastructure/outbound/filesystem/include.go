package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	includeTag      = "!include"
	maxIncludeDepth = 10
)

// IncludeResolver expands !include tags in fixture YAML. A YAML target is
// spliced in as a node; any other file becomes a string scalar. References
// are relative to the including file, or start with @root/ or @here/.
type IncludeResolver struct {
	rootDir string
}

// NewIncludeResolver creates a resolver confined to rootDir.
func NewIncludeResolver(rootDir string) *IncludeResolver {
	return &IncludeResolver{rootDir: rootDir}
}

// ResolveIncludes rewrites node in place. currentDir is the directory of the
// file node was read from.
func (r *IncludeResolver) ResolveIncludes(node *yaml.Node, currentDir string) error {
	return r.walk(node, currentDir, nil)
}

func (r *IncludeResolver) walk(node *yaml.Node, dir string, chain []string) error {
	if node == nil {
		return nil
	}
	if node.Tag == includeTag {
		return r.expand(node, dir, chain)
	}
	for _, child := range node.Content {
		if err := r.walk(child, dir, chain); err != nil {
			return err
		}
	}
	return nil
}

func (r *IncludeResolver) expand(node *yaml.Node, dir string, chain []string) error {
	ref := strings.TrimSpace(node.Value)
	if ref == "" {
		return fmt.Errorf("%s tag has empty value", includeTag)
	}

	target, err := r.target(ref, dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s %q: %w", includeTag, ref, err)
	}
	if err := withinRoot(r.rootDir, target); err != nil {
		return fmt.Errorf("%s %q is not allowed: %w", includeTag, ref, err)
	}
	if slices.Contains(chain, target) {
		return fmt.Errorf("%s cycle: %s", includeTag, strings.Join(append(chain, target), " -> "))
	}
	if len(chain) >= maxIncludeDepth {
		return fmt.Errorf("%s depth exceeds maximum of %d", includeTag, maxIncludeDepth)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("failed to read included file %q: %w", ref, err)
	}

	if !isYAML(target) {
		*node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(data)}
		return nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse included YAML %q: %w", ref, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		*node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}
		return nil
	}

	included := doc.Content[0]
	if err := r.walk(included, filepath.Dir(target), append(slices.Clone(chain), target)); err != nil {
		return err
	}
	*node = *included
	return nil
}

func (r *IncludeResolver) target(ref, dir string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "@root/"):
		return filepath.Join(r.rootDir, strings.TrimPrefix(ref, "@root/")), nil
	case strings.HasPrefix(ref, "@here/"):
		return filepath.Join(dir, strings.TrimPrefix(ref, "@here/")), nil
	case filepath.IsAbs(ref):
		return "", fmt.Errorf("absolute paths are not allowed")
	default:
		return filepath.Join(dir, ref), nil
	}
}
