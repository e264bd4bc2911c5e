// Package seed loads the static reference data written into a fresh catalog:
// the genre taxonomy and the list of metadata sources.
package seed

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	GenreTreeFile = "genre_tree.yaml"
	SourcesFile   = "sources.yaml"
)

//go:embed data/*.yaml
var dataFiles embed.FS

// GenreNode is one genre of the static taxonomy with its subgenres in document order.
type GenreNode struct {
	Name     string
	Children []GenreNode
}

// Source is a metadata provider entry.
type Source struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// StaticData is the complete reference data set.
type StaticData struct {
	Genres  []GenreNode
	Sources []Source
}

// GenreCount returns the number of genres in the tree, excluding the synthetic root.
func (d *StaticData) GenreCount() int {
	return countGenres(d.Genres)
}

func countGenres(nodes []GenreNode) int {
	n := len(nodes)
	for _, node := range nodes {
		n += countGenres(node.Children)
	}
	return n
}

// Default returns the reference data embedded in the binary.
func Default() (*StaticData, error) {
	sub, err := fs.Sub(dataFiles, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded static data: %w", err)
	}
	return Load(sub)
}

// Load reads GenreTreeFile and SourcesFile from fsys.
func Load(fsys fs.FS) (*StaticData, error) {
	genres, err := loadFile(fsys, GenreTreeFile, ParseGenreTree)
	if err != nil {
		return nil, err
	}
	sources, err := loadFile(fsys, SourcesFile, ParseSources)
	if err != nil {
		return nil, err
	}
	return &StaticData{Genres: genres, Sources: sources}, nil
}

func loadFile[T any](fsys fs.FS, name string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := fsys.Open(name)
	if err != nil {
		return zero, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("parsing %s: %w", name, err)
	}
	return v, nil
}

// ParseGenreTree decodes a nested mapping of genre names. Key order is kept,
// so genres are inserted in document order and get stable ids.
func ParseGenreTree(r io.Reader) ([]GenreNode, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("genre tree is empty")
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("genre tree is empty")
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: genre tree must be a mapping", root.Line)
	}
	nodes, err := parseGenreMapping(root, "")
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.New("genre tree is empty")
	}
	return nodes, nil
}

// parseGenreMapping decodes the subgenres of parent. A subgenre named like its
// parent is dropped together with its own subgenres.
func parseGenreMapping(m *yaml.Node, parent string) ([]GenreNode, error) {
	seen := make(map[string]bool, len(m.Content)/2)
	nodes := make([]GenreNode, 0, len(m.Content)/2)

	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i], resolveAlias(m.Content[i+1])

		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: genre name must be a string", key.Line)
		}
		name := strings.TrimSpace(key.Value)
		if name == "" {
			return nil, fmt.Errorf("line %d: empty genre name", key.Line)
		}
		if name == parent {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("line %d: duplicate genre %q under the same parent", key.Line, name)
		}
		seen[name] = true

		node := GenreNode{Name: name}
		switch {
		case value.Kind == yaml.MappingNode:
			children, err := parseGenreMapping(value, name)
			if err != nil {
				return nil, err
			}
			node.Children = children
		case value.Kind == yaml.ScalarNode && value.Tag == "!!null":
			// leaf written as "Genre:" with no value
		default:
			return nil, fmt.Errorf("line %d: subgenres of %q must be a mapping", value.Line, name)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// ParseSources decodes a sequence of {name, base_url} entries.
func ParseSources(r io.Reader) ([]Source, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sources []Source
	if err := dec.Decode(&sources); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("sources list is empty")
		}
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errors.New("sources list is empty")
	}

	seen := make(map[string]bool, len(sources))
	for i := range sources {
		s := &sources[i]
		s.Name = strings.TrimSpace(s.Name)
		s.BaseURL = strings.TrimSpace(s.BaseURL)

		if s.Name == "" {
			return nil, fmt.Errorf("source %d: missing name", i+1)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("source %d: duplicate name %q", i+1, s.Name)
		}
		seen[s.Name] = true

		u, err := url.Parse(s.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("source %q: invalid base_url %q", s.Name, s.BaseURL)
		}
	}
	return sources, nil
}
