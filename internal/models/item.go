package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a trackable inventory unit. It resides in exactly one Location of
// the same lab; every relocation goes through the movement ledger.
type Item struct {
	ItemID          uuid.UUID  `gorm:"column:item_id;type:uuid;primaryKey" json:"item_id"`
	LabID           uuid.UUID  `gorm:"column:lab_id;type:uuid;not null;index" json:"lab_id"`
	LocationID      uuid.UUID  `gorm:"column:location_id;type:uuid;not null;index" json:"location_id"`
	Name            string     `gorm:"column:name;not null" json:"name"`
	Category        string     `gorm:"column:category" json:"category"`
	Vendor          string     `gorm:"column:vendor" json:"vendor"`
	CatalogNumber   string     `gorm:"column:catalog_number" json:"catalog_number"`
	LotNumber       string     `gorm:"column:lot_number" json:"lot_number"`
	Quantity        float64    `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Unit            string     `gorm:"column:unit" json:"unit"`
	MinQuantity     *float64   `gorm:"column:min_quantity" json:"min_quantity"`
	ExpirationDate  *time.Time `gorm:"column:expiration_date" json:"expiration_date"`
	OpenedDate      *time.Time `gorm:"column:opened_date" json:"opened_date"`
	Remarks         *string    `gorm:"column:remarks" json:"remarks"`
	CreatedByID     uuid.UUID  `gorm:"column:created_by_id;type:uuid;not null" json:"created_by_id"`
	LastUpdatedByID uuid.UUID  `gorm:"column:last_updated_by_id;type:uuid;not null" json:"last_updated_by_id"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Location *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ItemID == uuid.Nil {
		i.ItemID = uuid.New()
	}
	return nil
}

// IsLowStock reports the derived low-stock state: a threshold is set and the
// current quantity does not exceed it.
func (i *Item) IsLowStock() bool {
	return i.MinQuantity != nil && i.Quantity <= *i.MinQuantity
}
