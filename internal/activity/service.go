package activity

import (
	"context"
	"encoding/json"

	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultListLimit = 50

// Service is the append-only audit trail. Nothing in the codebase updates or
// deletes an activity row.
type Service struct {
	DB *gorm.DB
}

type AppendInput struct {
	LabID       uuid.UUID
	UserID      uuid.UUID
	Type        string
	Description string
	Metadata    map[string]interface{}
}

// Append writes one audit entry.
func (s *Service) Append(ctx context.Context, in AppendInput) (*models.Activity, error) {
	act := &models.Activity{
		LabID:       in.LabID,
		UserID:      in.UserID,
		Type:        in.Type,
		Description: in.Description,
	}
	if in.Metadata != nil {
		b, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, apperr.Wrap(err, "Failed to encode activity metadata")
		}
		act.Metadata = datatypes.JSON(b)
	}
	if err := s.DB.WithContext(ctx).Create(act).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to record activity")
	}
	return act, nil
}

// Record is the best-effort variant used by mutation paths: the audit trail
// never rolls back the state change it describes, so a failed write is logged
// for operators and otherwise dropped.
func (s *Service) Record(ctx context.Context, in AppendInput) {
	if _, err := s.Append(ctx, in); err != nil {
		log.Error().Err(err).
			Str("lab_id", in.LabID.String()).
			Str("type", in.Type).
			Msg("activity append failed")
	}
}

// List returns the newest entries for a lab, newest first.
func (s *Service) List(ctx context.Context, labID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	var activities []models.Activity
	if err := s.DB.WithContext(ctx).
		Where("lab_id = ?", labID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch activities")
	}
	return activities, nil
}
