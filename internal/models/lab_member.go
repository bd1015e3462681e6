package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// LabMember grants a user access to a lab. The composite unique index is what
// makes concurrent invite redemption safe: a second insert for the same
// (user, lab) pair fails at the storage layer.
type LabMember struct {
	MemberID  uuid.UUID `gorm:"column:member_id;type:uuid;primaryKey" json:"member_id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_members_user_lab" json:"user_id"`
	LabID     uuid.UUID `gorm:"column:lab_id;type:uuid;not null;uniqueIndex:idx_members_user_lab" json:"lab_id"`
	Role      string    `gorm:"column:role;not null;default:'MEMBER'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (LabMember) TableName() string {
	return "lab_members"
}

func (m *LabMember) BeforeCreate(tx *gorm.DB) error {
	if m.MemberID == uuid.Nil {
		m.MemberID = uuid.New()
	}
	return nil
}
