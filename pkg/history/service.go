package history

import (
	"context"
	"log"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// TopFailure is one aggregated failure row: a task that failed on a given
// equipment, with how often it did in the queried range.
type TopFailure struct {
	Task               string `json:"task"`
	EquipmentID        string `json:"equipmentId"`
	EquipmentName      string `json:"equipmentName"`
	EquipmentLocalName string `json:"equipmentLocalName"`
	Count              int    `json:"count"`
}

// Fetcher is the remote read collaborator behind the cache.
type Fetcher interface {
	// OverviewRows returns the pre-aggregated projection: header fields plus
	// counters, no items.
	OverviewRows(ctx context.Context, scope, start, end string, limit, offset int) ([]models.Inspection, error)
	// DetailsByIDs returns fully hydrated records with de-duplicated items.
	DetailsByIDs(ctx context.Context, ids []string) ([]models.Inspection, error)
	// HeaderIDs lists the header ids matching the scope and date range,
	// newest first.
	HeaderIDs(ctx context.Context, scope, start, end string) ([]string, error)
	// TopFailures aggregates failed tasks per equipment over the range.
	TopFailures(ctx context.Context, start, end string, limit int) ([]TopFailure, error)
}

const (
	overviewLimit = 2000
	topFailureCap = 20
)

// Service serves the history and report read paths through the shared cache.
type Service struct {
	cache *Cache
	fetch Fetcher
}

func NewService(cache *Cache, fetch Fetcher) *Service {
	return &Service{cache: cache, fetch: fetch}
}

// Cache exposes the underlying cache for the submission pipeline to
// invalidate.
func (s *Service) Cache() *Cache { return s.cache }

// Overview returns aggregate projections for lists, dashboards and history
// browsing. Served from cache when a live entry exists; if the aggregate
// query fails it degrades to the detailed fetch.
func (s *Service) Overview(ctx context.Context, scope, start, end string) ([]models.Inspection, error) {
	key := Key("overview", scope, start, end)
	if data, ok := s.cache.Get(key); ok {
		return data, nil
	}

	rows, err := s.fetch.OverviewRows(ctx, scope, start, end, overviewLimit, 0)
	if err != nil {
		log.Printf("history: overview query failed, falling back to detailed fetch: %v", err)
		return s.Detailed(ctx, scope, start, end)
	}

	for i := range rows {
		rows[i].OverviewOnly = true
		rows[i].Items = nil
	}
	s.cache.Put(key, rows)
	return rows, nil
}

// Detailed returns fully hydrated records for the scope and range, cached
// under its own mode key.
func (s *Service) Detailed(ctx context.Context, scope, start, end string) ([]models.Inspection, error) {
	key := Key("detail", scope, start, end)
	if data, ok := s.cache.Get(key); ok {
		return data, nil
	}

	ids, err := s.fetch.HeaderIDs(ctx, scope, start, end)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Inspection{}, nil
	}

	rows, err := s.fetch.DetailsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, rows)
	return rows, nil
}

// DetailsByIDs hydrates specific records on demand, e.g. before exporting a
// single report fetched in overview mode. Bypasses the cache on purpose: the
// cached list stays untouched.
func (s *Service) DetailsByIDs(ctx context.Context, ids []string) ([]models.Inspection, error) {
	if len(ids) == 0 {
		return []models.Inspection{}, nil
	}
	return s.fetch.DetailsByIDs(ctx, ids)
}

// FullReport returns the hydrated record set for a date range regardless of
// inspector, for report/export views.
func (s *Service) FullReport(ctx context.Context, start, end string) ([]models.Inspection, error) {
	return s.Detailed(ctx, "", start, end)
}

// TopFailures returns the most frequent failed tasks per equipment in the
// range.
func (s *Service) TopFailures(ctx context.Context, start, end string) ([]TopFailure, error) {
	return s.fetch.TopFailures(ctx, start, end, topFailureCap)
}
