package submission

import (
	"context"
	"errors"
	"log"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// ErrUndefinedTable is returned by item sinks when the target table does not
// exist on this deployment.
var ErrUndefinedTable = errors.New("item table does not exist")

// ItemSink is the item-persistence collaborator, primary and legacy shapes.
type ItemSink interface {
	// InsertChecklistResults batch-inserts into the primary item table. With
	// includeMedia false the media-reference columns are left out entirely,
	// which covers stores that lack them.
	InsertChecklistResults(ctx context.Context, rows []models.ChecklistResult, includeMedia bool) error
	// InsertLegacyItems batch-inserts the full payload into the legacy table.
	InsertLegacyItems(ctx context.Context, rows []models.InspectionItem) error
}

// WriteStrategy is one alternative way of persisting the item batch. When
// gates a strategy on the previous strategy's failure; nil means it is always
// eligible.
type WriteStrategy struct {
	Name string
	When func(prev error) bool
	Run  func(ctx context.Context) error
}

// RunWriteStrategies tries the strategies in order, short-circuiting on the
// first success. A strategy whose When gate rejects the previous error ends
// the chain with that error.
func RunWriteStrategies(ctx context.Context, strategies []WriteStrategy) error {
	var prev error
	for i, s := range strategies {
		if i > 0 && s.When != nil && !s.When(prev) {
			break
		}
		err := s.Run(ctx)
		if err == nil {
			if i > 0 {
				log.Printf("submission: item batch persisted via fallback strategy %q", s.Name)
			}
			return nil
		}
		log.Printf("submission: item write strategy %q failed: %v", s.Name, err)
		prev = err
	}
	return prev
}

// itemStrategies builds the documented fallback chain for one item batch:
//  1. primary table, full payload
//  2. primary table with media references stripped, on any failure
//  3. legacy table with the full payload, only when the primary table is
//     missing altogether
func itemStrategies(sink ItemSink, rows []models.ChecklistResult) []WriteStrategy {
	legacy := make([]models.InspectionItem, 0, len(rows))
	for _, r := range rows {
		legacy = append(legacy, models.InspectionItem{
			InspectionID: r.InspectionID,
			Task:         r.Task,
			Status:       r.Status,
			Comment:      r.Comment,
			PhotoURL:     r.PhotoURL,
			VideoURL:     r.VideoURL,
		})
	}

	return []WriteStrategy{
		{
			Name: "checklist_results",
			Run: func(ctx context.Context) error {
				return sink.InsertChecklistResults(ctx, rows, true)
			},
		},
		{
			Name: "checklist_results without media",
			Run: func(ctx context.Context) error {
				return sink.InsertChecklistResults(ctx, rows, false)
			},
		},
		{
			Name: "legacy inspection_items",
			When: func(prev error) bool { return errors.Is(prev, ErrUndefinedTable) },
			Run: func(ctx context.Context) error {
				return sink.InsertLegacyItems(ctx, legacy)
			},
		},
	}
}
