package auth

import (
	"context"
	"errors"
	"strings"

	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"
	"labstock-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service handles signup and credential checks. Token issuance and session
// handling live at the boundary; this only deals with users and passwords.
type Service struct {
	DB *gorm.DB
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new user. Email is normalized to lower case and must be
// unique.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.New(apperr.Validation, "Name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, apperr.New(apperr.Validation, "Invalid email address")
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, apperr.New(apperr.Validation, "Password must be at least 8 characters and contain a letter, a number and a special character")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return nil, apperr.New(apperr.Conflict, "Email already registered")
		}
		return nil, apperr.Wrap(err, "Failed to create user")
	}
	return user, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies email+password and returns the user. Unknown email and wrong
// password produce the same message.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apperr.New(apperr.Validation, "Email and password are required")
	}
	var u models.User
	err := s.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthenticated, "Invalid email or password")
		}
		return nil, apperr.Wrap(err, "Failed to look up user")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return nil, apperr.New(apperr.Unauthenticated, "Invalid email or password")
	}
	return &u, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
