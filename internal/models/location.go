package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is one node of a lab's storage tree (Room -> Freezer -> Shelf ->
// Box). ParentID is nil at the root; cycle prevention lives in the locations
// service, not the schema.
type Location struct {
	LocationID  uuid.UUID  `gorm:"column:location_id;type:uuid;primaryKey" json:"location_id"`
	LabID       uuid.UUID  `gorm:"column:lab_id;type:uuid;not null;index" json:"lab_id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Type        string     `gorm:"column:type;not null" json:"type"`
	Description *string    `gorm:"column:description" json:"description"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid;index" json:"parent_id"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Parent *Location `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}

func (Location) TableName() string {
	return "locations"
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.LocationID == uuid.Nil {
		l.LocationID = uuid.New()
	}
	return nil
}
