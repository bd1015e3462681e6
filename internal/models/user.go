package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a login identity. Lab access is granted through LabMember rows,
// never directly on the user.
type User struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Email        string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// PublicUser is the reduced shape embedded in items, movements and member
// listings (id/name/email only, never the credential).
type PublicUser struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{UserID: u.UserID, Name: u.Name, Email: u.Email}
}
