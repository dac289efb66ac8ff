package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Item statuses as stored in checklist_results.status.
const (
	StatusPending = "PENDING"
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusNA      = "NA"
)

// DefaultInspectionStatus is the lifecycle status a report carries right after
// submission ("under review").
const DefaultInspectionStatus = "بازبینی"

// Inspection is the header row of a submitted report. Items live in
// checklist_results (or the legacy inspection_items table) and are attached
// manually by the history service, not through a gorm association, because the
// item table shape varies between deployments.
type Inspection struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EquipmentID    string    `gorm:"size:100;not null;index" json:"equipmentId"`
	EquipmentName  string    `gorm:"size:255;not null" json:"equipmentName"`
	ActivityName   string    `gorm:"size:255" json:"activityName,omitempty"`
	Timestamp      time.Time `gorm:"not null;index" json:"timestamp"`
	InspectorName  string    `gorm:"size:100;not null" json:"inspectorName"`
	InspectorCode  string    `gorm:"size:50;not null;index" json:"inspectorCode"`
	TrackingCode   string    `gorm:"size:20;uniqueIndex;not null" json:"trackingCode"`
	Status         string    `gorm:"size:100" json:"status"`
	AnalysisResult string    `gorm:"type:text" json:"analysisResult,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	// Read-side projection fields. Populated by the history service from the
	// aggregate query or from hydrated items; never persisted on this table.
	ChecklistTotal  int               `gorm:"-" json:"checklistTotal"`
	PassCount       int               `gorm:"-" json:"passCount"`
	FailCount       int               `gorm:"-" json:"failCount"`
	PendingCount    int               `gorm:"-" json:"pendingCount"`
	PassPercent     float64           `gorm:"-" json:"passPercent"`
	FailTasksSample pq.StringArray    `gorm:"-" json:"failTasksSample"`
	OverviewOnly    bool              `gorm:"-" json:"isOverviewOnly"`
	Items           []ChecklistResult `gorm:"-" json:"items"`
}

// ChecklistResult is one persisted checklist item of a submitted inspection.
type ChecklistResult struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InspectionID uuid.UUID `gorm:"type:uuid;not null;index" json:"inspectionId"`
	Task         string    `gorm:"type:text;not null" json:"task"`
	Status       string    `gorm:"size:20;not null" json:"status"`
	Comment      string    `gorm:"type:text" json:"comment"`
	PhotoURL     *string   `gorm:"size:500" json:"photoUrl,omitempty"`
	VideoURL     *string   `gorm:"size:500" json:"videoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// InspectionItem is the legacy item table some deployments still run with.
// Same shape as ChecklistResult; kept as a separate model so the write
// strategies can target either table explicitly.
type InspectionItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InspectionID uuid.UUID `gorm:"type:uuid;not null;index" json:"inspectionId"`
	Task         string    `gorm:"type:text;not null" json:"task"`
	Status       string    `gorm:"size:20;not null" json:"status"`
	Comment      string    `gorm:"type:text" json:"comment"`
	PhotoURL     *string   `gorm:"size:500" json:"photoUrl,omitempty"`
	VideoURL     *string   `gorm:"size:500" json:"videoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (c *ChecklistResult) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (l *InspectionItem) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
