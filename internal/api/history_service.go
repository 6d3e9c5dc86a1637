package api

import (
	"context"

	"voicematch/internal/history"
)

// HistoryReader abstracts history persistence needed for API queries.
type HistoryReader interface {
	List(ctx context.Context, filter history.Filter) ([]*history.Record, error)
	Get(ctx context.Context, id string) (*history.Record, error)
	Stats(ctx context.Context) (history.Stats, error)
}

// HistoryService exposes read-only history operations returning API DTOs.
type HistoryService struct {
	store     HistoryReader
	precision int
}

// NewHistoryService constructs a HistoryService around the provided reader.
// A nil reader yields a nil service whose methods return empty results.
func NewHistoryService(store HistoryReader, precision int) *HistoryService {
	if store == nil {
		return nil
	}
	return &HistoryService{store: store, precision: precision}
}

// List returns records newest first.
func (s *HistoryService) List(ctx context.Context, filter history.Filter) ([]ComparisonDetail, error) {
	if s == nil || s.store == nil {
		return []ComparisonDetail{}, nil
	}
	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromRecords(records, s.precision), nil
}

// Describe fetches a single record. A missing record returns nil, nil.
func (s *HistoryService) Describe(ctx context.Context, id string) (*ComparisonDetail, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	dto := FromRecord(rec, s.precision)
	return &dto, nil
}

// Stats returns history counts.
func (s *HistoryService) Stats(ctx context.Context) (HistoryStats, error) {
	if s == nil || s.store == nil {
		return HistoryStats{}, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return HistoryStats{}, err
	}
	return FromStats(stats, true), nil
}
