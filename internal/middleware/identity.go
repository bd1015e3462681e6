package middleware

import (
	"context"
	"strings"

	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const identityLocal = "identity"

// Identity is the resolved caller, threaded explicitly into every service
// call. It comes from either the web session or a mobile bearer token.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// TokenVerifier is the bearer-token half of identity resolution
// (authtoken.Codec in production).
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// ResolveIdentity resolves the caller once per request: session user first,
// then Authorization: Bearer. An unresolvable identity is not an error here;
// RequireIdentity rejects where one is mandatory.
func ResolveIdentity(db *gorm.DB, tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := fromSession(c); id != nil {
			c.Locals(identityLocal, id)
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if tokens != nil && strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			userID, err := tokens.Verify(c.Context(), token)
			if err == nil {
				var u models.User
				if db.WithContext(c.Context()).Where("user_id = ?", userID).First(&u).Error == nil {
					c.Locals(identityLocal, &Identity{UserID: u.UserID, Name: u.Name, Email: u.Email})
				}
			}
		}
		return c.Next()
	}
}

func fromSession(c *fiber.Ctx) *Identity {
	m, ok := c.Locals("session_user").(map[string]interface{})
	if !ok {
		return nil
	}
	raw, _ := m["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	name, _ := m["name"].(string)
	email, _ := m["email"].(string)
	return &Identity{UserID: userID, Name: name, Email: email}
}

// RequireIdentity rejects requests without a resolved identity.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetIdentity(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetIdentity returns the resolved identity, or nil.
func GetIdentity(c *fiber.Ctx) *Identity {
	id, _ := c.Locals(identityLocal).(*Identity)
	return id
}
