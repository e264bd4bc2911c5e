package catalog

import (
	"fmt"

	"taggivm/internal/model"
)

// GenreNode is a genre with its children, for display.
type GenreNode struct {
	Genre    *model.Genre
	Children []*GenreNode
}

// BuildGenreTree arranges a flat genre list into trees rooted at the top-level genres.
// Order follows the input order, which is insertion order when genres come from ListGenres.
func BuildGenreTree(genres []*model.Genre) ([]*GenreNode, error) {
	nodes := make(map[int64]*GenreNode, len(genres))
	for _, g := range genres {
		nodes[g.ID] = &GenreNode{Genre: g}
	}

	var roots []*GenreNode
	for _, g := range genres {
		node := nodes[g.ID]
		if g.IsRoot() {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[g.ParentID]
		if !ok {
			return nil, fmt.Errorf("genre %q references unknown parent %d", g.Name, g.ParentID)
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}

// GetGenreTree loads the seeded genre taxonomy.
func (s *CatalogService) GetGenreTree() ([]*GenreNode, error) {
	genres, err := s.database.ListGenres()
	if err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	return BuildGenreTree(genres)
}

// GetSources returns the seeded metadata sources.
func (s *CatalogService) GetSources() ([]*model.Source, error) {
	sources, err := s.database.ListSources()
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}
