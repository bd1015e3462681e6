package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labstock-backend/internal/activity"
	"labstock-backend/internal/expiration"
	"labstock-backend/internal/membership"
	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service owns item records and the movement ledger. Every relocation writes
// exactly one movement row, in the same transaction that updates the item's
// location, so the ledger and the current location never diverge.
type Service struct {
	DB         *gorm.DB
	Members    *membership.Service
	Activities *activity.Service
}

// ItemView is an item as listed to callers: the record plus the derived
// low-stock flag and expiration tier.
type ItemView struct {
	models.Item
	IsLowStock       bool              `json:"is_low_stock"`
	ExpirationStatus expiration.Status `json:"expiration_status"`
}

func view(item models.Item, now time.Time) ItemView {
	return ItemView{
		Item:             item,
		IsLowStock:       item.IsLowStock(),
		ExpirationStatus: expiration.Classify(item.ExpirationDate, now),
	}
}

type CreateItemInput struct {
	LocationID     uuid.UUID
	Name           string
	Category       string
	Vendor         string
	CatalogNumber  string
	LotNumber      string
	Quantity       *float64
	Unit           string
	MinQuantity    *float64
	ExpirationDate *time.Time
	OpenedDate     *time.Time
	Remarks        *string
}

// CreateItem adds an item to a location of the same lab. Quantity defaults to
// zero and may never be negative.
func (s *Service) CreateItem(ctx context.Context, labID, callerID uuid.UUID, in CreateItemInput) (*ItemView, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.New(apperr.Validation, "Item name is required")
	}
	if _, err := s.labLocation(ctx, labID, in.LocationID); err != nil {
		return nil, err
	}

	quantity := 0.0
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 0 {
		return nil, apperr.New(apperr.Validation, "Quantity cannot be negative")
	}
	if in.MinQuantity != nil && *in.MinQuantity < 0 {
		return nil, apperr.New(apperr.Validation, "Minimum quantity cannot be negative")
	}

	item := &models.Item{
		LabID:           labID,
		LocationID:      in.LocationID,
		Name:            strings.TrimSpace(in.Name),
		Category:        in.Category,
		Vendor:          in.Vendor,
		CatalogNumber:   in.CatalogNumber,
		LotNumber:       in.LotNumber,
		Quantity:        quantity,
		Unit:            in.Unit,
		MinQuantity:     in.MinQuantity,
		ExpirationDate:  in.ExpirationDate,
		OpenedDate:      in.OpenedDate,
		Remarks:         in.Remarks,
		CreatedByID:     callerID,
		LastUpdatedByID: callerID,
	}
	if err := s.DB.WithContext(ctx).Create(item).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to create item")
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:       labID,
		UserID:      callerID,
		Type:        models.ActivityItemCreated,
		Description: fmt.Sprintf("%s added %s", s.userName(ctx, callerID), item.Name),
		Metadata:    map[string]interface{}{"itemId": item.ItemID.String()},
	})

	v := view(*item, time.Now())
	return &v, nil
}

type UpdateItemInput struct {
	Name           *string
	Category       *string
	Vendor         *string
	CatalogNumber  *string
	LotNumber      *string
	Quantity       *float64
	Unit           *string
	MinQuantity    *float64
	ExpirationDate *time.Time
	OpenedDate     *time.Time
	Remarks        *string
}

// UpdateItem applies a partial update. A quantity change logs
// QUANTITY_CHANGED with the old and new values; any other change logs
// ITEM_UPDATED; a no-op request succeeds without writing an activity.
func (s *Service) UpdateItem(ctx context.Context, labID, itemID, callerID uuid.UUID, in UpdateItemInput) (*ItemView, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	old, err := s.labItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, apperr.New(apperr.Validation, "Quantity cannot be negative")
	}
	if in.MinQuantity != nil && *in.MinQuantity < 0 {
		return nil, apperr.New(apperr.Validation, "Minimum quantity cannot be negative")
	}

	updates := map[string]interface{}{}
	setString := func(col string, v *string, current string) {
		if v != nil && *v != current {
			updates[col] = *v
		}
	}
	setString("name", in.Name, old.Name)
	setString("category", in.Category, old.Category)
	setString("vendor", in.Vendor, old.Vendor)
	setString("catalog_number", in.CatalogNumber, old.CatalogNumber)
	setString("lot_number", in.LotNumber, old.LotNumber)
	setString("unit", in.Unit, old.Unit)
	if in.Quantity != nil && *in.Quantity != old.Quantity {
		updates["quantity"] = *in.Quantity
	}
	if in.MinQuantity != nil && (old.MinQuantity == nil || *in.MinQuantity != *old.MinQuantity) {
		updates["min_quantity"] = *in.MinQuantity
	}
	if in.ExpirationDate != nil && (old.ExpirationDate == nil || !in.ExpirationDate.Equal(*old.ExpirationDate)) {
		updates["expiration_date"] = *in.ExpirationDate
	}
	if in.OpenedDate != nil && (old.OpenedDate == nil || !in.OpenedDate.Equal(*old.OpenedDate)) {
		updates["opened_date"] = *in.OpenedDate
	}
	if in.Remarks != nil && (old.Remarks == nil || *in.Remarks != *old.Remarks) {
		updates["remarks"] = *in.Remarks
	}

	if len(updates) == 0 {
		v := view(*old, time.Now())
		return &v, nil
	}

	updates["last_updated_by_id"] = callerID
	if err := s.DB.WithContext(ctx).Model(&models.Item{}).
		Where("item_id = ?", itemID).
		Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to update item")
	}

	item, err := s.labItem(ctx, labID, itemID)
	if err != nil {
		return nil, err
	}

	if _, ok := updates["quantity"]; ok {
		s.Activities.Record(ctx, activity.AppendInput{
			LabID:  labID,
			UserID: callerID,
			Type:   models.ActivityQuantityChanged,
			Description: fmt.Sprintf("%s changed quantity of %s from %g to %g",
				s.userName(ctx, callerID), item.Name, old.Quantity, item.Quantity),
			Metadata: map[string]interface{}{
				"itemId":      item.ItemID.String(),
				"oldQuantity": old.Quantity,
				"newQuantity": item.Quantity,
			},
		})
	} else {
		s.Activities.Record(ctx, activity.AppendInput{
			LabID:       labID,
			UserID:      callerID,
			Type:        models.ActivityItemUpdated,
			Description: fmt.Sprintf("%s updated %s", s.userName(ctx, callerID), item.Name),
			Metadata:    map[string]interface{}{"itemId": item.ItemID.String()},
		})
	}

	v := view(*item, time.Now())
	return &v, nil
}

type MoveItemInput struct {
	ToLocationID uuid.UUID
	Quantity     *float64
	Notes        *string
}

// MoveItem relocates an item: one immutable movement row plus the location
// update, committed together. The item is re-read inside the transaction so
// the recorded from-location is the one actually replaced; concurrent moves
// serialize on the row and resolve last-writer-wins.
func (s *Service) MoveItem(ctx context.Context, labID, itemID, moverID uuid.UUID, in MoveItemInput) (*models.Movement, *ItemView, error) {
	if _, err := s.Members.Authorize(ctx, labID, moverID); err != nil {
		return nil, nil, err
	}
	toLocation, err := s.labLocation(ctx, labID, in.ToLocationID)
	if err != nil {
		return nil, nil, err
	}

	var movement *models.Movement
	var fromName string
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.Where("item_id = ? AND lab_id = ?", itemID, labID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Item not found")
			}
			return apperr.Wrap(err, "Failed to fetch item")
		}

		var from models.Location
		if err := tx.Where("location_id = ?", item.LocationID).First(&from).Error; err == nil {
			fromName = from.Name
		}

		movement = &models.Movement{
			ItemID:         item.ItemID,
			FromLocationID: item.LocationID,
			ToLocationID:   in.ToLocationID,
			Quantity:       in.Quantity,
			Notes:          in.Notes,
			MovedByID:      moverID,
		}
		if err := tx.Create(movement).Error; err != nil {
			return apperr.Wrap(err, "Failed to record movement")
		}

		if err := tx.Model(&models.Item{}).
			Where("item_id = ?", item.ItemID).
			Updates(map[string]interface{}{
				"location_id":        in.ToLocationID,
				"last_updated_by_id": moverID,
			}).Error; err != nil {
			return apperr.Wrap(err, "Failed to update item location")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	item, err := s.labItem(ctx, labID, itemID)
	if err != nil {
		return nil, nil, err
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:  labID,
		UserID: moverID,
		Type:   models.ActivityItemMoved,
		Description: fmt.Sprintf("%s moved %s from %s to %s",
			s.userName(ctx, moverID), item.Name, fromName, toLocation.Name),
		Metadata: map[string]interface{}{
			"itemId":         item.ItemID.String(),
			"fromLocationId": movement.FromLocationID.String(),
			"toLocationId":   movement.ToLocationID.String(),
		},
	})

	v := view(*item, time.Now())
	return movement, &v, nil
}

// DeleteItem removes the record. The audit trail keeps the item's name even
// though the row is gone.
func (s *Service) DeleteItem(ctx context.Context, labID, itemID, callerID uuid.UUID) error {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return err
	}
	item, err := s.labItem(ctx, labID, itemID)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Delete(item).Error; err != nil {
		return apperr.Wrap(err, "Failed to delete item")
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:       labID,
		UserID:      callerID,
		Type:        models.ActivityItemDeleted,
		Description: fmt.Sprintf("%s deleted %s", s.userName(ctx, callerID), item.Name),
		Metadata:    map[string]interface{}{"itemName": item.Name},
	})
	return nil
}

// GetItem returns one item with its location.
func (s *Service) GetItem(ctx context.Context, labID, itemID, callerID uuid.UUID) (*ItemView, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	var item models.Item
	err := s.DB.WithContext(ctx).Preload("Location").
		Where("item_id = ? AND lab_id = ?", itemID, labID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Item not found")
		}
		return nil, apperr.Wrap(err, "Failed to fetch item")
	}
	v := view(item, time.Now())
	return &v, nil
}

// ListFilter narrows ListItems. Zero values mean "no restriction".
type ListFilter struct {
	Search       string
	Category     string
	LocationID   *uuid.UUID
	LowStockOnly bool
}

// ListItems returns the lab's items, most recently updated first. Search
// matches name, vendor, catalog number and lot number case-insensitively.
func (s *Service) ListItems(ctx context.Context, labID, callerID uuid.UUID, filter ListFilter) ([]ItemView, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).Preload("Location").Where("lab_id = ?", labID)
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(vendor) LIKE ? OR LOWER(catalog_number) LIKE ? OR LOWER(lot_number) LIKE ?",
			like, like, like, like,
		)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}
	if filter.LowStockOnly {
		q = q.Where("min_quantity IS NOT NULL AND quantity <= min_quantity")
	}

	var items []models.Item
	if err := q.Order("updated_at DESC").Find(&items).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch items")
	}

	now := time.Now()
	out := make([]ItemView, 0, len(items))
	for _, item := range items {
		out = append(out, view(item, now))
	}
	return out, nil
}

// ExpiringReport splits items by the expiration window: those expiring within
// the next N days (soonest first) and those already expired (latest first,
// capped at 10).
type ExpiringReport struct {
	Expiring []ItemView `json:"expiring"`
	Expired  []ItemView `json:"expired"`
}

// ExpiringItems builds the expiration report for the dashboard.
func (s *Service) ExpiringItems(ctx context.Context, labID, callerID uuid.UUID, days int) (*ExpiringReport, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	now := time.Now()
	until := now.AddDate(0, 0, days)

	var expiring []models.Item
	if err := s.DB.WithContext(ctx).Preload("Location").
		Where("lab_id = ? AND expiration_date IS NOT NULL AND expiration_date >= ? AND expiration_date <= ?", labID, now, until).
		Order("expiration_date ASC").
		Find(&expiring).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch expiring items")
	}

	var expired []models.Item
	if err := s.DB.WithContext(ctx).Preload("Location").
		Where("lab_id = ? AND expiration_date IS NOT NULL AND expiration_date < ?", labID, now).
		Order("expiration_date DESC").
		Limit(10).
		Find(&expired).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch expired items")
	}

	report := &ExpiringReport{
		Expiring: make([]ItemView, 0, len(expiring)),
		Expired:  make([]ItemView, 0, len(expired)),
	}
	for _, item := range expiring {
		report.Expiring = append(report.Expiring, view(item, now))
	}
	for _, item := range expired {
		report.Expired = append(report.Expired, view(item, now))
	}
	return report, nil
}

// Movements returns the item's ledger, newest first.
func (s *Service) Movements(ctx context.Context, labID, itemID, callerID uuid.UUID) ([]models.Movement, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	if _, err := s.labItem(ctx, labID, itemID); err != nil {
		return nil, err
	}
	var movements []models.Movement
	if err := s.DB.WithContext(ctx).
		Preload("FromLocation").Preload("ToLocation").
		Where("item_id = ?", itemID).
		Order("moved_at DESC").
		Find(&movements).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch movements")
	}
	return movements, nil
}

func (s *Service) labItem(ctx context.Context, labID, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := s.DB.WithContext(ctx).
		Where("item_id = ? AND lab_id = ?", itemID, labID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Item not found")
		}
		return nil, apperr.Wrap(err, "Failed to fetch item")
	}
	return &item, nil
}

func (s *Service) labLocation(ctx context.Context, labID, locationID uuid.UUID) (*models.Location, error) {
	var loc models.Location
	err := s.DB.WithContext(ctx).
		Where("location_id = ? AND lab_id = ?", locationID, labID).
		First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Location not found")
		}
		return nil, apperr.Wrap(err, "Failed to fetch location")
	}
	return &loc, nil
}

func (s *Service) userName(ctx context.Context, userID uuid.UUID) string {
	var u models.User
	if err := s.DB.WithContext(ctx).Select("name").Where("user_id = ?", userID).First(&u).Error; err != nil {
		return "Unknown user"
	}
	return u.Name
}
