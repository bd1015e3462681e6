package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labstock-backend/internal/activity"
	"labstock-backend/internal/membership"
	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxTreeDepth bounds every ancestor walk. The cycle check keeps real trees
// far below this; hitting it means stored data violates the acyclicity
// invariant and must surface as a fault, not an infinite loop.
const maxTreeDepth = 100

// Service maintains the acyclic storage-location tree of each lab.
type Service struct {
	DB         *gorm.DB
	Members    *membership.Service
	Activities *activity.Service
}

type CreateLocationInput struct {
	Name        string
	Type        string
	Description *string
	ParentID    *uuid.UUID
}

// CreateLocation adds a node. A brand-new node cannot be its own ancestor, so
// no cycle check is needed here; the parent only has to resolve in-lab.
func (s *Service) CreateLocation(ctx context.Context, labID, callerID uuid.UUID, in CreateLocationInput) (*models.Location, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.New(apperr.Validation, "Location name is required")
	}
	if in.ParentID != nil {
		if _, err := s.labLocation(ctx, labID, *in.ParentID); err != nil {
			return nil, err
		}
	}

	loc := &models.Location{
		LabID:       labID,
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Description: in.Description,
		ParentID:    in.ParentID,
	}
	if err := s.DB.WithContext(ctx).Create(loc).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to create location")
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:       labID,
		UserID:      callerID,
		Type:        models.ActivityLocationCreated,
		Description: fmt.Sprintf("%s created location %s", s.userName(ctx, callerID), loc.Name),
		Metadata:    map[string]interface{}{"locationId": loc.LocationID.String()},
	})
	return loc, nil
}

type UpdateLocationInput struct {
	Name        *string
	Type        *string
	Description *string
}

// UpdateLocation changes name/type/description. Parent changes go through
// Reparent, which runs the cycle check.
func (s *Service) UpdateLocation(ctx context.Context, labID, locationID, callerID uuid.UUID, in UpdateLocationInput) (*models.Location, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	loc, err := s.labLocation(ctx, labID, locationID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.New(apperr.Validation, "Location name is required")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) == 0 {
		return loc, nil
	}
	if err := s.DB.WithContext(ctx).Model(loc).Updates(updates).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to update location")
	}
	return loc, nil
}

// Reparent moves a location under newParentID (nil makes it a root). The
// ancestor chain of the new parent is walked upward; finding the location
// there, or newParentID equal to the location itself, rejects the move and
// leaves the tree untouched.
func (s *Service) Reparent(ctx context.Context, labID, locationID uuid.UUID, newParentID *uuid.UUID, callerID uuid.UUID) (*models.Location, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	loc, err := s.labLocation(ctx, labID, locationID)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if *newParentID == locationID {
			return nil, apperr.New(apperr.Validation, "A location cannot be its own parent")
		}
		parent, err := s.labLocation(ctx, labID, *newParentID)
		if err != nil {
			return nil, err
		}
		ancestor := parent
		for depth := 0; ancestor.ParentID != nil; depth++ {
			if depth >= maxTreeDepth {
				return nil, apperr.New(apperr.Internal, "Location tree exceeds maximum depth")
			}
			if *ancestor.ParentID == locationID {
				return nil, apperr.New(apperr.Validation, "Reparenting would create a cycle")
			}
			ancestor, err = s.labLocation(ctx, labID, *ancestor.ParentID)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := s.DB.WithContext(ctx).Model(loc).Update("parent_id", newParentID).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to move location")
	}
	loc.ParentID = newParentID
	return loc, nil
}

// Breadcrumb returns the names on the path from the root down to the
// location, root first.
func (s *Service) Breadcrumb(ctx context.Context, labID, locationID, callerID uuid.UUID) ([]string, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	loc, err := s.labLocation(ctx, labID, locationID)
	if err != nil {
		return nil, err
	}

	names := []string{loc.Name}
	for depth := 0; loc.ParentID != nil; depth++ {
		if depth >= maxTreeDepth {
			return nil, apperr.New(apperr.Internal, "Location tree exceeds maximum depth")
		}
		loc, err = s.labLocation(ctx, labID, *loc.ParentID)
		if err != nil {
			return nil, err
		}
		names = append([]string{loc.Name}, names...)
	}
	return names, nil
}

// Delete removes an empty leaf. A location still owning items or child
// locations is a Conflict; cascading delete is the caller's problem.
func (s *Service) Delete(ctx context.Context, labID, locationID, callerID uuid.UUID) error {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return err
	}
	loc, err := s.labLocation(ctx, labID, locationID)
	if err != nil {
		return err
	}

	var children int64
	if err := s.DB.WithContext(ctx).Model(&models.Location{}).
		Where("parent_id = ?", locationID).Count(&children).Error; err != nil {
		return apperr.Wrap(err, "Failed to check child locations")
	}
	if children > 0 {
		return apperr.New(apperr.Conflict, "Location still has child locations")
	}

	var items int64
	if err := s.DB.WithContext(ctx).Model(&models.Item{}).
		Where("location_id = ?", locationID).Count(&items).Error; err != nil {
		return apperr.Wrap(err, "Failed to check location items")
	}
	if items > 0 {
		return apperr.New(apperr.Conflict, "Location still has items")
	}

	if err := s.DB.WithContext(ctx).Delete(loc).Error; err != nil {
		return apperr.Wrap(err, "Failed to delete location")
	}
	return nil
}

// LocationWithCount is a list row: the location plus how many items sit in it.
type LocationWithCount struct {
	models.Location
	ItemCount int64 `json:"item_count"`
}

// List returns all locations of a lab in creation order.
func (s *Service) List(ctx context.Context, labID, callerID uuid.UUID) ([]LocationWithCount, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	var locs []models.Location
	if err := s.DB.WithContext(ctx).Preload("Parent").
		Where("lab_id = ?", labID).
		Order("created_at ASC").
		Find(&locs).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch locations")
	}

	out := make([]LocationWithCount, 0, len(locs))
	for _, loc := range locs {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Item{}).
			Where("location_id = ?", loc.LocationID).Count(&count).Error; err != nil {
			return nil, apperr.Wrap(err, "Failed to count location items")
		}
		out = append(out, LocationWithCount{Location: loc, ItemCount: count})
	}
	return out, nil
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
