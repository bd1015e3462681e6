package labs

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

// Service owns lab lifecycle. Creating a lab makes the creator its ADMIN;
// deleting one cascades to everything the lab owns.
type Service struct {
	DB         *gorm.DB
	Members    *membership.Service
	Activities *activity.Service
}

// LabWithCounts is a listing row: the lab plus its entity counts.
type LabWithCounts struct {
	models.Lab
	MemberCount   int64 `json:"member_count"`
	ItemCount     int64 `json:"item_count"`
	LocationCount int64 `json:"location_count"`
}

// CreateLab creates the lab and the creator's ADMIN membership in one
// transaction.
func (s *Service) CreateLab(ctx context.Context, creatorID uuid.UUID, name string, description *string) (*models.Lab, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.New(apperr.Validation, "Lab name is required")
	}

	lab := &models.Lab{Name: strings.TrimSpace(name), Description: description}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lab).Error; err != nil {
			return apperr.Wrap(err, "Failed to create lab")
		}
		member := &models.LabMember{
			UserID: creatorID,
			LabID:  lab.LabID,
			Role:   models.RoleAdmin,
		}
		if err := tx.Create(member).Error; err != nil {
			return apperr.Wrap(err, "Failed to create lab membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:       lab.LabID,
		UserID:      creatorID,
		Type:        models.ActivityMemberJoined,
		Description: fmt.Sprintf("%s created lab %s", s.userName(ctx, creatorID), lab.Name),
	})
	return lab, nil
}

// ListLabs returns every lab the user belongs to, with counts.
func (s *Service) ListLabs(ctx context.Context, userID uuid.UUID) ([]LabWithCounts, error) {
	var labs []models.Lab
	if err := s.DB.WithContext(ctx).
		Joins("JOIN lab_members ON lab_members.lab_id = labs.lab_id").
		Where("lab_members.user_id = ?", userID).
		Order("labs.created_at ASC").
		Find(&labs).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch labs")
	}

	out := make([]LabWithCounts, 0, len(labs))
	for _, lab := range labs {
		row := LabWithCounts{Lab: lab}
		counts := []struct {
			model interface{}
			dst   *int64
		}{
			{&models.LabMember{}, &row.MemberCount},
			{&models.Item{}, &row.ItemCount},
			{&models.Location{}, &row.LocationCount},
		}
		for _, c := range counts {
			if err := s.DB.WithContext(ctx).Model(c.model).
				Where("lab_id = ?", lab.LabID).Count(c.dst).Error; err != nil {
				return nil, apperr.Wrap(err, "Failed to count lab entities")
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// GetLab returns the lab with its roster; the caller must be a member.
func (s *Service) GetLab(ctx context.Context, labID, callerID uuid.UUID) (*models.Lab, error) {
	if _, err := s.Members.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	var lab models.Lab
	err := s.DB.WithContext(ctx).Preload("Members.User").
		Where("lab_id = ?", labID).First(&lab).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Lab not found")
		}
		return nil, apperr.Wrap(err, "Failed to fetch lab")
	}
	return &lab, nil
}

type UpdateLabInput struct {
	Name        *string
	Description *string
}

// UpdateLab changes name/description; ADMIN only.
func (s *Service) UpdateLab(ctx context.Context, labID, callerID uuid.UUID, in UpdateLabInput) (*models.Lab, error) {
	if _, err := s.Members.RequireAdmin(ctx, labID, callerID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.New(apperr.Validation, "Lab name is required")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Lab{}).
			Where("lab_id = ?", labID).Updates(updates).Error; err != nil {
			return nil, apperr.Wrap(err, "Failed to update lab")
		}
	}

	var lab models.Lab
	if err := s.DB.WithContext(ctx).Where("lab_id = ?", labID).First(&lab).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch lab")
	}
	return &lab, nil
}

// DeleteLab removes the lab and everything it owns; ADMIN only. Deletes run
// in one transaction, children first, so a failure leaves the lab intact.
func (s *Service) DeleteLab(ctx context.Context, labID, callerID uuid.UUID) error {
	if _, err := s.Members.RequireAdmin(ctx, labID, callerID); err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id IN (?)",
			tx.Model(&models.Item{}).Select("item_id").Where("lab_id = ?", labID),
		).Delete(&models.Movement{}).Error; err != nil {
			return apperr.Wrap(err, "Failed to delete lab movements")
		}
		for _, model := range []interface{}{
			&models.Item{}, &models.Location{}, &models.Invite{},
			&models.Activity{}, &models.LabMember{},
		} {
			if err := tx.Where("lab_id = ?", labID).Delete(model).Error; err != nil {
				return apperr.Wrap(err, "Failed to delete lab data")
			}
		}
		if err := tx.Where("lab_id = ?", labID).Delete(&models.Lab{}).Error; err != nil {
			return apperr.Wrap(err, "Failed to delete lab")
		}
		return nil
	})
}

func (s *Service) userName(ctx context.Context, userID uuid.UUID) string {
	var u models.User
	if err := s.DB.WithContext(ctx).Select("name").Where("user_id = ?", userID).First(&u).Error; err != nil {
		return "Unknown user"
	}
	return u.Name
}
