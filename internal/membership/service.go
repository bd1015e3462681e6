package membership

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"labstock-backend/internal/activity"
	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultInviteExpiry = 7 * 24 * time.Hour

// Service gates every lab-scoped operation: membership lookup, invite
// issue/redeem, member removal.
type Service struct {
	DB         *gorm.DB
	Activities *activity.Service
}

// Authorize returns the caller's membership in the lab, or Forbidden.
// Mutation paths never run for callers that fail this check.
func (s *Service) Authorize(ctx context.Context, labID, userID uuid.UUID) (*models.LabMember, error) {
	var m models.LabMember
	err := s.DB.WithContext(ctx).
		Where("lab_id = ? AND user_id = ?", labID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Forbidden, "Not a member of this lab")
		}
		return nil, apperr.Wrap(err, "Failed to check membership")
	}
	return &m, nil
}

// RequireAdmin is Authorize plus an ADMIN role check.
func (s *Service) RequireAdmin(ctx context.Context, labID, userID uuid.UUID) (*models.LabMember, error) {
	m, err := s.Authorize(ctx, labID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role != models.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "Admin role required")
	}
	return m, nil
}

type CreateInviteInput struct {
	ExpiresInDays int
	MaxUses       *int
}

// CreateInvite issues a join token for the lab. The issuer must be a member;
// any role may invite.
func (s *Service) CreateInvite(ctx context.Context, labID, issuerID uuid.UUID, in CreateInviteInput) (*models.Invite, error) {
	if _, err := s.Authorize(ctx, labID, issuerID); err != nil {
		return nil, err
	}
	if in.MaxUses != nil && *in.MaxUses < 1 {
		return nil, apperr.New(apperr.Validation, "maxUses must be at least 1")
	}
	expiry := defaultInviteExpiry
	if in.ExpiresInDays > 0 {
		expiry = time.Duration(in.ExpiresInDays) * 24 * time.Hour
	}

	inv := &models.Invite{
		LabID:       labID,
		Token:       randomHex(32),
		ExpiresAt:   time.Now().Add(expiry),
		MaxUses:     in.MaxUses,
		CreatedByID: issuerID,
	}
	if err := s.DB.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to create invite")
	}
	return inv, nil
}

// RedeemInvite joins the caller to the invite's lab as MEMBER. The usage
// counter is incremented with a conditional update inside the same
// transaction that inserts the member, so two racing redemptions of a
// limited invite cannot both get past the limit; the (user, lab) unique
// index turns a double-join into Conflict instead of a duplicate row.
func (s *Service) RedeemInvite(ctx context.Context, token string, userID uuid.UUID) (*models.LabMember, error) {
	var inv models.Invite
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Invalid invite")
		}
		return nil, apperr.Wrap(err, "Failed to look up invite")
	}

	if time.Now().After(inv.ExpiresAt) {
		return nil, apperr.New(apperr.Validation, "Invite expired")
	}
	if inv.MaxUses != nil && inv.UsedCount >= *inv.MaxUses {
		return nil, apperr.New(apperr.Conflict, "Invite link has been fully used")
	}

	member := &models.LabMember{
		UserID: userID,
		LabID:  inv.LabID,
		Role:   models.RoleMember,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invite{}).
			Where("invite_id = ? AND (max_uses IS NULL OR used_count < max_uses)", inv.InviteID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return apperr.Wrap(res.Error, "Failed to redeem invite")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.Conflict, "Invite link has been fully used")
		}
		if err := tx.Create(member).Error; err != nil {
			if isDuplicate(err) {
				return apperr.New(apperr.Conflict, "Already a member")
			}
			return apperr.Wrap(err, "Failed to join lab")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:       inv.LabID,
		UserID:      userID,
		Type:        models.ActivityMemberJoined,
		Description: fmt.Sprintf("%s joined the lab", s.userName(ctx, userID)),
	})

	if err := s.DB.WithContext(ctx).Preload("User").
		Where("member_id = ?", member.MemberID).First(member).Error; err == nil {
		return member, nil
	}
	return member, nil
}

// RemoveMember deletes the target's membership. Only an ADMIN of the lab may
// remove members; self-removal is allowed.
func (s *Service) RemoveMember(ctx context.Context, labID, actingUserID, targetUserID uuid.UUID) error {
	if _, err := s.RequireAdmin(ctx, labID, actingUserID); err != nil {
		return err
	}

	res := s.DB.WithContext(ctx).
		Where("lab_id = ? AND user_id = ?", labID, targetUserID).
		Delete(&models.LabMember{})
	if res.Error != nil {
		return apperr.Wrap(res.Error, "Failed to remove member")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "Member not found")
	}

	s.Activities.Record(ctx, activity.AppendInput{
		LabID:       labID,
		UserID:      actingUserID,
		Type:        models.ActivityMemberRemoved,
		Description: fmt.Sprintf("%s removed %s from the lab", s.userName(ctx, actingUserID), s.userName(ctx, targetUserID)),
		Metadata:    map[string]interface{}{"removedUserId": targetUserID.String()},
	})
	return nil
}

// ListMembers returns the lab roster, oldest membership first.
func (s *Service) ListMembers(ctx context.Context, labID, callerID uuid.UUID) ([]models.LabMember, error) {
	if _, err := s.Authorize(ctx, labID, callerID); err != nil {
		return nil, err
	}
	var members []models.LabMember
	if err := s.DB.WithContext(ctx).Preload("User").
		Where("lab_id = ?", labID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch members")
	}
	return members, nil
}

func (s *Service) userName(ctx context.Context, userID uuid.UUID) string {
	var u models.User
	if err := s.DB.WithContext(ctx).Select("name").Where("user_id = ?", userID).First(&u).Error; err != nil {
		return "Unknown user"
	}
	return u.Name
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
