package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lab is the tenant: it owns locations, items, members, invites and activities.
type Lab struct {
	LabID       uuid.UUID `gorm:"column:lab_id;type:uuid;primaryKey" json:"lab_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Members []LabMember `gorm:"foreignKey:LabID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Lab) TableName() string {
	return "labs"
}

func (l *Lab) BeforeCreate(tx *gorm.DB) error {
	if l.LabID == uuid.Nil {
		l.LabID = uuid.New()
	}
	return nil
}
