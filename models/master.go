package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssetMaster is the read-only equipment master record. Owned by the
// maintenance planning office; this service only looks equipment up by code.
type AssetMaster struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code            string         `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	Description     string         `gorm:"size:500" json:"description"`
	TraditionalName string         `gorm:"size:255" json:"traditionalName"` // local plant-floor name
	LastMaintained  string         `gorm:"size:50" json:"lastMaintained"`
	Location        datatypes.JSON `gorm:"type:jsonb" json:"location,omitempty"` // {lat, lng, hall}
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (AssetMaster) TableName() string { return "defined_assets" }

// AssetSchedule links a job card (schedulable maintenance activity) to an
// asset. One asset may carry several scheduled job cards at a time.
type AssetSchedule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetNumber string    `gorm:"size:100;not null;index" json:"assetNumber"`
	JobCardCode string    `gorm:"size:100;not null" json:"jobCardCode"`
	JobCardName string    `gorm:"size:255" json:"jobCardName"`
	PlanCode    string    `gorm:"size:100" json:"planCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DefinedChecklistItem is a managed checklist task template, keyed by job-card
// code and ordered by sequence.
type DefinedChecklistItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobCardCode string    `gorm:"size:100;not null;index" json:"jobCardCode"`
	Sequence    int       `gorm:"not null" json:"sequence"`
	Task        string    `gorm:"type:text;not null" json:"task"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (a *AssetMaster) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

func (s *AssetSchedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

func (d *DefinedChecklistItem) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
