package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite is a usage- and time-limited join token for a lab. UsedCount only
// moves up, and never past MaxUses when one is set; the conditional increment
// in the membership service enforces that under concurrency.
type Invite struct {
	InviteID    uuid.UUID `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	LabID       uuid.UUID `gorm:"column:lab_id;type:uuid;not null;index" json:"lab_id"`
	Token       string    `gorm:"column:token;not null;uniqueIndex" json:"token"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	MaxUses     *int      `gorm:"column:max_uses" json:"max_uses"`
	UsedCount   int       `gorm:"column:used_count;not null;default:0" json:"used_count"`
	CreatedByID uuid.UUID `gorm:"column:created_by_id;type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Invite) TableName() string {
	return "invites"
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}
