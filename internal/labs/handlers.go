package labs

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

// GET /api/v1/labs
func (h *Handlers) List(c *fiber.Ctx) error {
	ident := middleware.GetIdentity(c)
	labs, err := h.Service.ListLabs(c.Context(), ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Labs fetched", labs, nil)
}

// POST /api/v1/labs
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return response.Error(c, "Lab name is required", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	lab, err := h.Service.CreateLab(c.Context(), ident.UserID, body.Name, body.Description)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.SuccessCreated(c, "Lab created", lab, nil)
}

// GET /api/v1/labs/:labId
func (h *Handlers) Get(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	lab, err := h.Service.GetLab(c.Context(), labID, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Lab fetched", lab, nil)
}

// PATCH /api/v1/labs/:labId
func (h *Handlers) Update(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	lab, err := h.Service.UpdateLab(c.Context(), labID, ident.UserID, UpdateLabInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Lab updated", lab, nil)
}

// DELETE /api/v1/labs/:labId
func (h *Handlers) Delete(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	if err := h.Service.DeleteLab(c.Context(), labID, ident.UserID); err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Lab deleted", nil, nil)
}
