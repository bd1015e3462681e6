package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movement is one immutable ledger entry: the item left FromLocation and now
// sits in ToLocation. Rows are only ever inserted; after a successful move the
// item's location_id equals the to_location_id of its newest movement.
type Movement struct {
	MovementID     uuid.UUID `gorm:"column:movement_id;type:uuid;primaryKey" json:"movement_id"`
	ItemID         uuid.UUID `gorm:"column:item_id;type:uuid;not null;index" json:"item_id"`
	FromLocationID uuid.UUID `gorm:"column:from_location_id;type:uuid;not null" json:"from_location_id"`
	ToLocationID   uuid.UUID `gorm:"column:to_location_id;type:uuid;not null" json:"to_location_id"`
	Quantity       *float64  `gorm:"column:quantity" json:"quantity"`
	Notes          *string   `gorm:"column:notes" json:"notes"`
	MovedByID      uuid.UUID `gorm:"column:moved_by_id;type:uuid;not null" json:"moved_by_id"`
	MovedAt        time.Time `gorm:"column:moved_at;autoCreateTime" json:"moved_at"`

	FromLocation *Location `gorm:"foreignKey:FromLocationID" json:"from_location,omitempty"`
	ToLocation   *Location `gorm:"foreignKey:ToLocationID" json:"to_location,omitempty"`
}

func (Movement) TableName() string {
	return "movements"
}

func (m *Movement) BeforeCreate(tx *gorm.DB) error {
	if m.MovementID == uuid.Nil {
		m.MovementID = uuid.New()
	}
	return nil
}
