package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefinedUser is an inspector account. Inspectors log in with their personnel
// code; the role gates access to the reporting and admin surfaces.
type DefinedUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Code         string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Org          string    `gorm:"size:100" json:"org"`
	Role         string    `gorm:"size:50;default:operator" json:"role"`
	AvatarURL    string    `gorm:"size:500" json:"avatarUrl,omitempty"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *DefinedUser) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
