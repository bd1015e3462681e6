package membership

import (
	"labstock-backend/internal/middleware"
	"labstock-backend/internal/pkg/apperr"
	"labstock-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// POST /api/v1/labs/:labId/invites
func (h *Handlers) CreateInvite(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	var body struct {
		ExpiresInDays int  `json:"expiresInDays"`
		MaxUses       *int `json:"maxUses"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	inv, err := h.Service.CreateInvite(c.Context(), labID, ident.UserID, CreateInviteInput{
		ExpiresInDays: body.ExpiresInDays,
		MaxUses:       body.MaxUses,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.SuccessCreated(c, "Invite created", inv, nil)
}

// POST /api/v1/invites/join
func (h *Handlers) Join(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "Invite token is required", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	member, err := h.Service.RedeemInvite(c.Context(), body.Token, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Joined lab", member, nil)
}

// GET /api/v1/labs/:labId/members
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	members, err := h.Service.ListMembers(c.Context(), labID, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Members fetched", members, nil)
}

// DELETE /api/v1/labs/:labId/members/:userId
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return response.Error(c, "Invalid user id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	if err := h.Service.RemoveMember(c.Context(), labID, ident.UserID, targetID); err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Member removed", nil, nil)
}
