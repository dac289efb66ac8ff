package submission

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mechanicalh600-lang/CheckList/models"
	"github.com/mechanicalh600-lang/CheckList/pkg/blob"
	"github.com/mechanicalh600-lang/CheckList/pkg/checklist"
	"github.com/mechanicalh600-lang/CheckList/pkg/flow"
)

// uploadConcurrency bounds the media fan-out so a checklist with many
// attachments cannot open an unbounded number of parallel uploads.
const uploadConcurrency = 4

const analysisUnavailable = "تحلیل هوشمند انجام نشد."

// Analyzer is the optional report-analysis collaborator. Failures never block
// the pipeline.
type Analyzer interface {
	AnalyzeReport(ctx context.Context, equipmentName, activityName string, passed int, failures []checklist.FailureDetail) (string, error)
}

// Invalidator clears the read-side cache after a successful write.
type Invalidator interface {
	InvalidateAll()
}

// Pipeline is the write path for a completed inspection: local backup,
// tracking-code allocation with header persistence, concurrent media upload,
// item-batch persistence through the fallback chain, cache invalidation.
type Pipeline struct {
	allocator *Allocator
	sink      ItemSink
	blobs     blob.Store
	backup    *BackupSlot
	cache     Invalidator
	analyzer  Analyzer
}

func NewPipeline(headers HeaderStore, sink ItemSink, blobs blob.Store, backup *BackupSlot, cache Invalidator, analyzer Analyzer) *Pipeline {
	return &Pipeline{
		allocator: NewAllocator(headers),
		sink:      sink,
		blobs:     blobs,
		backup:    backup,
		cache:     cache,
		analyzer:  analyzer,
	}
}

// Submit persists the snapshot and returns the allocated tracking code.
//
// If the item batch fails after the header insert, the header row stays
// committed: an orphan header with zero items is tolerated on purpose so the
// tracking-code audit trail is never lost. The returned error names the
// committed code so the caller can surface it.
func (p *Pipeline) Submit(ctx context.Context, snap flow.Snapshot) (string, error) {
	if p.backup != nil {
		if err := p.backup.Write(snap); err != nil {
			log.Printf("submission: local backup write failed: %v", err)
		}
	}

	header := &models.Inspection{
		EquipmentID:    snap.EquipmentID,
		EquipmentName:  snap.EquipmentName,
		ActivityName:   snap.ActivityName,
		Timestamp:      snap.Timestamp,
		InspectorName:  snap.InspectorName,
		InspectorCode:  snap.InspectorCode,
		Status:         models.DefaultInspectionStatus,
		AnalysisResult: p.analyze(ctx, snap),
	}

	code, err := p.allocator.Allocate(ctx, header)
	if err != nil {
		return "", fmt.Errorf("خطا در ذخیره اطلاعات پایه: %w", err)
	}

	rows := p.buildRows(ctx, header.ID.String(), snap.Items)
	for i := range rows {
		rows[i].InspectionID = header.ID
	}

	if err := RunWriteStrategies(ctx, itemStrategies(p.sink, rows)); err != nil {
		return "", fmt.Errorf("خطا در ذخیره آیتم‌های چک‌لیست (کد رهگیری %s ثبت شد): %w", code, err)
	}

	if p.cache != nil {
		p.cache.InvalidateAll()
	}
	if p.backup != nil {
		if err := p.backup.Clear(); err != nil {
			log.Printf("submission: backup clear failed: %v", err)
		}
	}
	return code, nil
}

// analyze asks the generative collaborator for a summary, best-effort.
func (p *Pipeline) analyze(ctx context.Context, snap flow.Snapshot) string {
	if p.analyzer == nil {
		return analysisUnavailable
	}

	passed := 0
	var failures []checklist.FailureDetail
	for _, item := range snap.Items {
		switch item.Status {
		case models.StatusPass:
			passed++
		case models.StatusFail:
			failures = append(failures, checklist.FailureDetail{Task: item.Task, Comment: item.Comment})
		}
	}

	analysis, err := p.analyzer.AnalyzeReport(ctx, snap.EquipmentName, snap.ActivityName, passed, failures)
	if err != nil {
		log.Printf("submission: report analysis skipped: %v", err)
		return analysisUnavailable
	}
	return analysis
}

// buildRows uploads item media concurrently (bounded fan-out) and assembles
// the persistable item batch. A failed upload leaves a nil reference for that
// slot; it never aborts the pipeline.
func (p *Pipeline) buildRows(ctx context.Context, headerID string, items []checklist.Item) []models.ChecklistResult {
	rows := make([]models.ChecklistResult, len(items))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for i, item := range items {
		rows[i] = models.ChecklistResult{
			Task:    item.Task,
			Status:  item.Status,
			Comment: item.Comment,
		}

		uploads := []struct {
			kind  string
			media *checklist.Media
			slot  **string
		}{
			{"photo", item.Photo, &rows[i].PhotoURL},
			{"video", item.Video, &rows[i].VideoURL},
		}
		for _, u := range uploads {
			if u.media == nil || p.blobs == nil {
				continue
			}
			kind, media, slot, itemID := u.kind, u.media, u.slot, item.ID
			g.Go(func() error {
				path := fmt.Sprintf("%s_%s_%s.%s", kind, headerID, itemID, media.Ext)
				url, err := p.blobs.Upload(gctx, path, media.Data, contentTypeFor(media.Ext))
				if err != nil {
					log.Printf("submission: %s upload failed for %s: %v", kind, itemID, err)
					return nil
				}
				mu.Lock()
				*slot = &url
				mu.Unlock()
				return nil
			})
		}
	}
	g.Wait()

	return rows
}

func contentTypeFor(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// WithClock overrides the allocator's clock, for deterministic prefixes in
// tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.allocator.now = now
	return p
}
