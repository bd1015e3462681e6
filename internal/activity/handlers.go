package activity

import (
	"context"
	"strconv"

	"labstock-backend/internal/middleware"
	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"
	"labstock-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Authorizer is the membership check the feed needs; satisfied by
// membership.Service.
type Authorizer interface {
	Authorize(ctx context.Context, labID, userID uuid.UUID) (*models.LabMember, error)
}

type Handlers struct {
	Service *Service
	Members Authorizer
}

// GET /api/v1/labs/:labId/activities?limit=N
func (h *Handlers) List(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	ident := middleware.GetIdentity(c)
	if _, err := h.Members.Authorize(c.Context(), labID, ident.UserID); err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}

	activities, err := h.Service.List(c.Context(), labID, limit)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Activities fetched", activities, nil)
}
