package flow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mechanicalh600-lang/CheckList/models"
)

var (
	// ErrEquipmentNotFound means no master asset carries the scanned code.
	ErrEquipmentNotFound = errors.New("تجهیز با این کد در دیتابیس یافت نشد")
	// ErrNoScheduledActivity means the asset exists but has no job card
	// scheduled against it.
	ErrNoScheduledActivity = errors.New("هیچ کارت فعالیت (Job Card) برای این تجهیز تعریف نشده است")
)

// Equipment is the resolved descriptive record of a scanned asset.
type Equipment struct {
	ID             string `json:"id"` // the asset code
	Name           string `json:"name"`
	Description    string `json:"description"`
	LastMaintained string `json:"lastMaintained,omitempty"`
}

// Activity is a scheduled job card the inspector can pick.
type Activity struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	EquipmentTag string `json:"equipmentTag"`
	PlanCode     string `json:"planCode,omitempty"`
}

// MasterStore is the read-only master-data collaborator.
type MasterStore interface {
	AssetByCode(ctx context.Context, code string) (*models.AssetMaster, error)
	SchedulesByAsset(ctx context.Context, assetNumber string) ([]models.AssetSchedule, error)
}

// Resolver turns an identifying code into equipment plus its scheduled
// activities, deduplicated by job-card code.
type Resolver struct {
	store MasterStore
}

func NewResolver(store MasterStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks the code up and enumerates the scheduled activities. Returns
// ErrEquipmentNotFound when the code is unknown and ErrNoScheduledActivity
// when the asset carries no job card; both leave the caller's state untouched.
func (r *Resolver) Resolve(ctx context.Context, code string) (*Equipment, []Activity, error) {
	asset, err := r.store.AssetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEquipmentNotFound
		}
		return nil, nil, err
	}

	description := asset.Description
	if description == "" {
		description = "تجهیز شناسایی نشده"
	}
	equipment := &Equipment{
		ID:             code,
		Name:           asset.Name,
		Description:    description,
		LastMaintained: asset.LastMaintained,
	}

	schedules, err := r.store.SchedulesByAsset(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	// Dedupe by job-card code. A later duplicate replaces the earlier one
	// but keeps its original position in the list.
	order := make([]string, 0, len(schedules))
	byCode := make(map[string]Activity, len(schedules))
	for _, s := range schedules {
		name := s.JobCardName
		if name == "" {
			name = "فعالیت بدون نام"
		}
		if _, seen := byCode[s.JobCardCode]; !seen {
			order = append(order, s.JobCardCode)
		}
		byCode[s.JobCardCode] = Activity{
			Code:         s.JobCardCode,
			Name:         name,
			EquipmentTag: s.AssetNumber,
			PlanCode:     s.PlanCode,
		}
	}

	activities := make([]Activity, 0, len(order))
	for _, c := range order {
		activities = append(activities, byCode[c])
	}
	if len(activities) == 0 {
		return equipment, nil, ErrNoScheduledActivity
	}
	return equipment, activities, nil
}

// GormMasterStore reads defined_assets and asset_schedules.
type GormMasterStore struct {
	db *gorm.DB
}

func NewGormMasterStore(db *gorm.DB) *GormMasterStore {
	return &GormMasterStore{db: db}
}

func (s *GormMasterStore) AssetByCode(ctx context.Context, code string) (*models.AssetMaster, error) {
	var asset models.AssetMaster
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *GormMasterStore) SchedulesByAsset(ctx context.Context, assetNumber string) ([]models.AssetSchedule, error) {
	var schedules []models.AssetSchedule
	err := s.db.WithContext(ctx).
		Where("asset_number = ?", assetNumber).
		Order("created_at ASC").
		Find(&schedules).Error
	return schedules, err
}
