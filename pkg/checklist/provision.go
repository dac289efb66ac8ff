package checklist

import (
	"context"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// TemplateStore is the managed checklist-reference lookup.
type TemplateStore interface {
	TemplatesByJobCard(ctx context.Context, jobCardCode string) ([]models.DefinedChecklistItem, error)
}

// Generator is the external generative collaborator. Implementations must
// return an error (never a partial result) when the response cannot be parsed.
type Generator interface {
	GenerateChecklist(ctx context.Context, equipmentName, activityName string) ([]GeneratedTask, error)
}

// Provisioner resolves the task templates for a chosen activity and
// materializes them into fresh pending items.
//
// Resolution order, first match wins:
//  1. managed templates registered for the activity code
//  2. static template for the activity code
//  3. keyword match of the activity display name against the synonym table
//  4. generative collaborator
//  5. fixed generic fallback checklist
type Provisioner struct {
	store TemplateStore
	gen   Generator
}

func NewProvisioner(store TemplateStore, gen Generator) *Provisioner {
	return &Provisioner{store: store, gen: gen}
}

// Provision returns the fresh item set for an inspection of equipmentName.
// activityName and activityCode are empty for a general inspection.
func (p *Provisioner) Provision(ctx context.Context, equipmentName, activityName, activityCode string) []Item {
	return Materialize(p.resolveTasks(ctx, equipmentName, activityName, activityCode))
}

func (p *Provisioner) resolveTasks(ctx context.Context, equipmentName, activityName, activityCode string) []GeneratedTask {
	if activityCode != "" && p.store != nil {
		templates, err := p.store.TemplatesByJobCard(ctx, activityCode)
		if err != nil {
			log.Printf("checklist: managed template lookup failed for %s: %v", activityCode, err)
		} else if len(templates) > 0 {
			tasks := make([]GeneratedTask, 0, len(templates))
			for _, t := range templates {
				tasks = append(tasks, GeneratedTask{Task: t.Task, Description: t.Description})
			}
			return tasks
		}
	}

	if tasks, ok := staticChecklists[activityCode]; ok {
		return tasks
	}
	if tasks := templateByActivityName(activityName); tasks != nil {
		return tasks
	}

	if p.gen != nil {
		tasks, err := p.gen.GenerateChecklist(ctx, equipmentName, activityName)
		if err != nil {
			log.Printf("checklist: generation failed for %q: %v", equipmentName, err)
		} else if len(tasks) > 0 {
			return tasks
		}
	}

	return FallbackChecklist()
}

func templateByActivityName(activityName string) []GeneratedTask {
	if activityName == "" {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(activityName))
	for _, entry := range activityCodeByKeyword {
		if strings.Contains(normalized, strings.ToLower(entry.Keyword)) {
			return staticChecklists[entry.Code]
		}
	}
	return nil
}

// GormTemplateStore reads managed templates from defined_checklist_items.
type GormTemplateStore struct {
	db *gorm.DB
}

func NewGormTemplateStore(db *gorm.DB) *GormTemplateStore {
	return &GormTemplateStore{db: db}
}

func (s *GormTemplateStore) TemplatesByJobCard(ctx context.Context, jobCardCode string) ([]models.DefinedChecklistItem, error) {
	var templates []models.DefinedChecklistItem
	err := s.db.WithContext(ctx).
		Where("job_card_code = ?", jobCardCode).
		Order("sequence ASC").
		Find(&templates).Error
	return templates, err
}
