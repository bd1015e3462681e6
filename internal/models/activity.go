package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity types, one per semantically distinct mutation.
const (
	ActivityItemCreated     = "ITEM_CREATED"
	ActivityItemUpdated     = "ITEM_UPDATED"
	ActivityItemMoved       = "ITEM_MOVED"
	ActivityItemDeleted     = "ITEM_DELETED"
	ActivityQuantityChanged = "QUANTITY_CHANGED"
	ActivityLocationCreated = "LOCATION_CREATED"
	ActivityMemberJoined    = "MEMBER_JOINED"
	ActivityMemberRemoved   = "MEMBER_REMOVED"
)

// Activity is one append-only audit entry. No update or delete path exists
// anywhere in the codebase.
type Activity struct {
	ActivityID  uuid.UUID      `gorm:"column:activity_id;type:uuid;primaryKey" json:"activity_id"`
	LabID       uuid.UUID      `gorm:"column:lab_id;type:uuid;not null;index" json:"lab_id"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Type        string         `gorm:"column:type;not null" json:"type"`
	Description string         `gorm:"column:description;not null" json:"description"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func (Activity) TableName() string {
	return "activities"
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ActivityID == uuid.Nil {
		a.ActivityID = uuid.New()
	}
	return nil
}
