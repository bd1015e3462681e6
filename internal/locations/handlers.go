package locations

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

func labAndLocation(c *fiber.Ctx) (labID, locationID uuid.UUID, err error) {
	labID, err = uuid.Parse(c.Params("labId"))
	if err != nil {
		return
	}
	locationID, err = uuid.Parse(c.Params("locationId"))
	return
}

// GET /api/v1/labs/:labId/locations
func (h *Handlers) List(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	locs, err := h.Service.List(c.Context(), labID, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Locations fetched", locs, nil)
}

// POST /api/v1/labs/:labId/locations
func (h *Handlers) Create(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	var body struct {
		Name        string     `json:"name"`
		Type        string     `json:"type"`
		Description *string    `json:"description"`
		ParentID    *uuid.UUID `json:"parent_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return response.Error(c, "Location name is required", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	loc, err := h.Service.CreateLocation(c.Context(), labID, ident.UserID, CreateLocationInput{
		Name:        body.Name,
		Type:        body.Type,
		Description: body.Description,
		ParentID:    body.ParentID,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.SuccessCreated(c, "Location created", loc, nil)
}

// PATCH /api/v1/labs/:labId/locations/:locationId
// A parent_id field in the body triggers the reparent path with its cycle check.
func (h *Handlers) Update(c *fiber.Ctx) error {
	labID, locationID, err := labAndLocation(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	var body struct {
		Name        *string    `json:"name"`
		Type        *string    `json:"type"`
		Description *string    `json:"description"`
		ParentID    *uuid.UUID `json:"parent_id"`
		Reparent    bool       `json:"reparent"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	loc, err := h.Service.UpdateLocation(c.Context(), labID, locationID, ident.UserID, UpdateLocationInput{
		Name:        body.Name,
		Type:        body.Type,
		Description: body.Description,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	if body.Reparent || body.ParentID != nil {
		loc, err = h.Service.Reparent(c.Context(), labID, locationID, body.ParentID, ident.UserID)
		if err != nil {
			return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
		}
	}
	return response.Success(c, "Location updated", loc, nil)
}

// GET /api/v1/labs/:labId/locations/:locationId/breadcrumb
func (h *Handlers) Breadcrumb(c *fiber.Ctx) error {
	labID, locationID, err := labAndLocation(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	names, err := h.Service.Breadcrumb(c.Context(), labID, locationID, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Breadcrumb fetched", names, nil)
}

// DELETE /api/v1/labs/:labId/locations/:locationId
func (h *Handlers) Delete(c *fiber.Ctx) error {
	labID, locationID, err := labAndLocation(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	if err := h.Service.Delete(c.Context(), labID, locationID, ident.UserID); err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Location deleted", nil, nil)
}
