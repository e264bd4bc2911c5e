package catalog

import (
	"fmt"

	"taggivm/internal/model"
)

// GetHistory returns the most recent ingest runs, ordered newest first.
func (s *CatalogService) GetHistory(limit int) ([]*model.IngestRun, error) {
	runs, err := s.database.ListIngestRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing ingest runs: %w", err)
	}
	return runs, nil
}
