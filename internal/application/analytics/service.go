package analytics

import (
	"context"

	domain "github.com/talentlens/talentlens/internal/domain/analysis"
)

const defaultPageSize = 50

// Service exposes read-only aggregates over the persisted analysis records.
type Service struct {
	Records domain.RecordRepository
}

func (s *Service) Overview(ctx context.Context) (*domain.Overview, error) {
	return s.Records.Overview(ctx)
}

// List returns one page of records, newest first, plus the total count for
// the applied filter.
func (s *Service) List(ctx context.Context, f domain.ListFilter) ([]*domain.Record, int64, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.Records.List(ctx, f)
}

// Export returns every completed record for offline processing.
func (s *Service) Export(ctx context.Context) ([]*domain.Record, error) {
	return s.Records.Export(ctx)
}
