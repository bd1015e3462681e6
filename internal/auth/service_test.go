package auth

import (
	"context"
	"testing"

	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return &Service{DB: db}
}

func TestSignup_Valid(t *testing.T) {
	svc := setupAuthTest(t)

	user, err := svc.Signup(context.Background(), SignupInput{
		Name: "Alice", Email: "  Alice@Test.COM ", Password: "hunter2!X",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@test.com", user.Email)
	assert.NotEqual(t, "hunter2!X", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2!X")))
}

func TestSignup_Validation(t *testing.T) {
	svc := setupAuthTest(t)

	cases := []struct {
		name  string
		input SignupInput
	}{
		{"empty name", SignupInput{Name: " ", Email: "a@b.com", Password: "hunter2!X"}},
		{"bad email", SignupInput{Name: "A", Email: "not-an-email", Password: "hunter2!X"}},
		{"short password", SignupInput{Name: "A", Email: "a@b.com", Password: "ab1!"}},
		{"no digit", SignupInput{Name: "A", Email: "a@b.com", Password: "abcdefg!!"}},
		{"no special", SignupInput{Name: "A", Email: "a@b.com", Password: "abcdefg12"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := setupAuthTest(t)

	_, err := svc.Signup(context.Background(), SignupInput{Name: "A", Email: "a@b.com", Password: "hunter2!X"})
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), SignupInput{Name: "B", Email: "A@B.com", Password: "hunter2!X"})
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestLogin(t *testing.T) {
	svc := setupAuthTest(t)
	_, err := svc.Signup(context.Background(), SignupInput{Name: "A", Email: "a@b.com", Password: "hunter2!X"})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), LoginInput{Email: "A@b.com ", Password: "hunter2!X"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@b.com", Password: "hunter2!X"})
	require.Error(t, err)
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}
