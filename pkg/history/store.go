package history

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// GormFetcher is the Postgres-backed read side.
type GormFetcher struct {
	db *gorm.DB
}

func NewGormFetcher(db *gorm.DB) *GormFetcher {
	return &GormFetcher{db: db}
}

type overviewRow struct {
	ID              uuid.UUID
	EquipmentID     string
	EquipmentName   string
	ActivityName    string
	Timestamp       time.Time
	InspectorName   string
	InspectorCode   string
	TrackingCode    string
	Status          string
	AnalysisResult  string
	ChecklistTotal  int
	PassCount       int
	FailCount       int
	PendingCount    int
	PassPercent     float64
	FailTasksSample pq.StringArray `gorm:"type:text[]"`
}

func (f *GormFetcher) OverviewRows(ctx context.Context, scope, start, end string, limit, offset int) ([]models.Inspection, error) {
	query := `
		SELECT i.id, i.equipment_id, i.equipment_name, i.activity_name, i.timestamp,
		       i.inspector_name, i.inspector_code, i.tracking_code, i.status, i.analysis_result,
		       COUNT(c.id) AS checklist_total,
		       COUNT(c.id) FILTER (WHERE c.status = 'PASS') AS pass_count,
		       COUNT(c.id) FILTER (WHERE c.status = 'FAIL') AS fail_count,
		       COUNT(c.id) FILTER (WHERE c.status = 'PENDING') AS pending_count,
		       COALESCE(ROUND(COUNT(c.id) FILTER (WHERE c.status = 'PASS') * 100.0 / NULLIF(COUNT(c.id), 0), 2), 0) AS pass_percent,
		       (ARRAY_REMOVE(ARRAY_AGG(c.task) FILTER (WHERE c.status = 'FAIL'), NULL))[1:5] AS fail_tasks_sample
		FROM inspections i
		LEFT JOIN checklist_results c ON c.inspection_id = i.id
		WHERE 1=1`
	args := []interface{}{}
	query, args = appendRangeFilters(query, args, "i", scope, start, end)
	query += " GROUP BY i.id ORDER BY i.timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []overviewRow
	if err := f.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]models.Inspection, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.Inspection{
			ID:              r.ID,
			EquipmentID:     r.EquipmentID,
			EquipmentName:   r.EquipmentName,
			ActivityName:    r.ActivityName,
			Timestamp:       r.Timestamp,
			InspectorName:   r.InspectorName,
			InspectorCode:   r.InspectorCode,
			TrackingCode:    r.TrackingCode,
			Status:          r.Status,
			AnalysisResult:  r.AnalysisResult,
			ChecklistTotal:  r.ChecklistTotal,
			PassCount:       r.PassCount,
			FailCount:       r.FailCount,
			PendingCount:    r.PendingCount,
			PassPercent:     r.PassPercent,
			FailTasksSample: r.FailTasksSample,
			OverviewOnly:    true,
		})
	}
	return result, nil
}

func (f *GormFetcher) HeaderIDs(ctx context.Context, scope, start, end string) ([]string, error) {
	query := "SELECT i.id FROM inspections i WHERE 1=1"
	args := []interface{}{}
	query, args = appendRangeFilters(query, args, "i", scope, start, end)
	query += " ORDER BY i.timestamp DESC"

	var ids []string
	err := f.db.WithContext(ctx).Raw(query, args...).Scan(&ids).Error
	return ids, err
}

func (f *GormFetcher) DetailsByIDs(ctx context.Context, ids []string) ([]models.Inspection, error) {
	var headers []models.Inspection
	err := f.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("timestamp DESC").
		Find(&headers).Error
	if err != nil {
		return nil, err
	}

	var items []models.ChecklistResult
	err = f.db.WithContext(ctx).
		Where("inspection_id IN ?", ids).
		Find(&items).Error
	if err != nil && !isUndefinedTable(err) {
		return nil, err
	}

	// Old deployments may still hold rows in the legacy table; merge both.
	var legacy []models.InspectionItem
	err = f.db.WithContext(ctx).
		Where("inspection_id IN ?", ids).
		Find(&legacy).Error
	if err != nil && !isUndefinedTable(err) {
		log.Printf("history: legacy item fetch failed: %v", err)
	}
	for _, l := range legacy {
		items = append(items, models.ChecklistResult(l))
	}

	byInspection := make(map[uuid.UUID][]models.ChecklistResult)
	for _, item := range items {
		byInspection[item.InspectionID] = append(byInspection[item.InspectionID], item)
	}

	for i := range headers {
		headers[i].Items = dedupeItems(byInspection[headers[i].ID])
		attachCounters(&headers[i])
	}
	return headers, nil
}

func (f *GormFetcher) TopFailures(ctx context.Context, start, end string, limit int) ([]TopFailure, error) {
	failures, err := f.failedTasks(ctx, "checklist_results", start, end)
	if err != nil {
		return nil, err
	}
	legacy, err := f.failedTasks(ctx, "inspection_items", start, end)
	if err != nil {
		log.Printf("history: legacy failure fetch failed: %v", err)
	}
	failures = append(failures, legacy...)

	type key struct{ task, equipmentID string }
	counts := make(map[key]*TopFailure)
	order := []key{}
	for _, fr := range failures {
		k := key{fr.Task, fr.EquipmentID}
		if existing, ok := counts[k]; ok {
			existing.Count += fr.Count
			continue
		}
		row := fr
		counts[k] = &row
		order = append(order, k)
	}

	result := make([]TopFailure, 0, len(order))
	for _, k := range order {
		result = append(result, *counts[k])
	}
	sort.SliceStable(result, func(a, b int) bool { return result[a].Count > result[b].Count })
	if len(result) > limit {
		result = result[:limit]
	}

	f.attachLocalNames(ctx, result)
	return result, nil
}

func (f *GormFetcher) failedTasks(ctx context.Context, table, start, end string) ([]TopFailure, error) {
	query := `
		SELECT c.task, i.equipment_id, i.equipment_name, COUNT(*) AS count
		FROM ` + table + ` c
		JOIN inspections i ON i.id = c.inspection_id
		WHERE c.status = 'FAIL'`
	args := []interface{}{}
	query, args = appendRangeFilters(query, args, "i", "", start, end)
	query += " GROUP BY c.task, i.equipment_id, i.equipment_name"

	var rows []TopFailure
	err := f.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error
	if isUndefinedTable(err) {
		return nil, nil
	}
	return rows, err
}

func (f *GormFetcher) attachLocalNames(ctx context.Context, rows []TopFailure) {
	codes := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.EquipmentID] {
			seen[r.EquipmentID] = true
			codes = append(codes, r.EquipmentID)
		}
	}
	if len(codes) == 0 {
		return
	}

	var assets []models.AssetMaster
	if err := f.db.WithContext(ctx).Where("code IN ?", codes).Find(&assets).Error; err != nil {
		log.Printf("history: asset description lookup failed: %v", err)
		return
	}
	descriptions := make(map[string]string, len(assets))
	for _, a := range assets {
		descriptions[a.Code] = a.Description
	}
	for i := range rows {
		rows[i].EquipmentLocalName = descriptions[rows[i].EquipmentID]
	}
}

// appendRangeFilters adds the scope/date conditions shared by the read
// queries. alias is the inspections table alias in the query.
func appendRangeFilters(query string, args []interface{}, alias, scope, start, end string) (string, []interface{}) {
	if scope != "" {
		query += " AND " + alias + ".inspector_code = ?"
		args = append(args, scope)
	}
	if start != "" {
		query += " AND " + alias + ".timestamp >= ?::timestamptz"
		args = append(args, start)
	}
	if end != "" {
		query += " AND " + alias + ".timestamp <= ?::timestamptz"
		args = append(args, end)
	}
	return query, args
}

// dedupeItems drops duplicate item rows by id, keeping the last occurrence,
// since duplicates may occur upstream when primary and legacy tables overlap.
func dedupeItems(items []models.ChecklistResult) []models.ChecklistResult {
	byID := make(map[uuid.UUID]models.ChecklistResult, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, seen := byID[item.ID]; !seen {
			order = append(order, item.ID)
		}
		byID[item.ID] = item
	}
	result := make([]models.ChecklistResult, 0, len(order))
	for _, id := range order {
		result = append(result, byID[id])
	}
	return result
}

// attachCounters fills the projection fields of a hydrated record. A detail
// fetch of an orphan header (zero items) keeps the overview flag set so
// consumers never trust an empty item collection.
func attachCounters(insp *models.Inspection) {
	insp.ChecklistTotal = len(insp.Items)
	insp.PassCount, insp.FailCount, insp.PendingCount = 0, 0, 0
	insp.FailTasksSample = nil
	for _, item := range insp.Items {
		switch item.Status {
		case models.StatusPass:
			insp.PassCount++
		case models.StatusFail:
			insp.FailCount++
			if len(insp.FailTasksSample) < 5 {
				insp.FailTasksSample = append(insp.FailTasksSample, item.Task)
			}
		case models.StatusPending:
			insp.PendingCount++
		}
	}
	if insp.ChecklistTotal > 0 {
		insp.PassPercent = float64(insp.PassCount) * 100 / float64(insp.ChecklistTotal)
	}
	insp.OverviewOnly = insp.ChecklistTotal == 0
}

func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
