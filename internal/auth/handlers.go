package auth

import (
	"context"
	"strings"

	"labstock-backend/internal/authtoken"
	"labstock-backend/internal/middleware"
	"labstock-backend/internal/pkg/apperr"
	"labstock-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Service *Service
	Tokens  *authtoken.Codec
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// POST /api/v1/auth/signup
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var body SignupInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	user, err := h.Service.Signup(c.Context(), body)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.SuccessCreated(c, "Account created", user.Public(), nil)
}

// POST /api/v1/auth/login establishes the web session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	user, err := h.Service.Login(c.Context(), body)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}

	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID: user.UserID.String(),
		Name:   user.Name,
		Email:  user.Email,
	})
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)

	return response.Success(c, "Logged in", user.Public(), nil)
}

// POST /api/v1/auth/mobile/signin issues the stateless bearer token.
func (h *Handlers) MobileSignin(c *fiber.Ctx) error {
	var body LoginInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	user, err := h.Service.Login(c.Context(), body)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	token, err := h.Tokens.Issue(user.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Signed in", fiber.Map{
		"user":  user.Public(),
		"token": token,
	}, nil)
}

// GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	ident := middleware.GetIdentity(c)
	if ident == nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{
		"user_id": ident.UserID,
		"name":    ident.Name,
		"email":   ident.Email,
	}, nil)
}

// DELETE /api/v1/auth/logout destroys the web session and, when a bearer
// token is presented, denylists it for its remaining lifetime.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	header := c.Get(fiber.HeaderAuthorization)
	if h.Tokens != nil && strings.HasPrefix(header, "Bearer ") {
		if err := h.Tokens.Revoke(c.Context(), strings.TrimPrefix(header, "Bearer ")); err != nil {
			return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
		}
	}
	return response.Success(c, "Logged out", nil, nil)
}
