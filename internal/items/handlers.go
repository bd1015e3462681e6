package items

import (
	"strconv"
	"time"

	"labstock-backend/internal/middleware"
	"labstock-backend/internal/pkg/apperr"
	"labstock-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

type itemBody struct {
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Vendor         string     `json:"vendor"`
	CatalogNumber  string     `json:"catalog_number"`
	LotNumber      string     `json:"lot_number"`
	Quantity       *float64   `json:"quantity"`
	Unit           string     `json:"unit"`
	MinQuantity    *float64   `json:"min_quantity"`
	ExpirationDate *time.Time `json:"expiration_date"`
	OpenedDate     *time.Time `json:"opened_date"`
	Remarks        *string    `json:"remarks"`
	LocationID     uuid.UUID  `json:"location_id"`
}

func labAndItem(c *fiber.Ctx) (labID, itemID uuid.UUID, err error) {
	labID, err = uuid.Parse(c.Params("labId"))
	if err != nil {
		return
	}
	itemID, err = uuid.Parse(c.Params("itemId"))
	return
}

// GET /api/v1/labs/:labId/items?search=&category=&locationId=&lowStock=true
func (h *Handlers) List(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}

	filter := ListFilter{
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		LowStockOnly: c.Query("lowStock") == "true",
	}
	if raw := c.Query("locationId"); raw != "" {
		locID, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid location id", 400, nil)
		}
		filter.LocationID = &locID
	}

	ident := middleware.GetIdentity(c)
	items, err := h.Service.ListItems(c.Context(), labID, ident.UserID, filter)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Items fetched", items, nil)
}

// POST /api/v1/labs/:labId/items
func (h *Handlers) Create(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	var body itemBody
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return response.Error(c, "Item name is required", 400, nil)
	}
	if body.LocationID == uuid.Nil {
		return response.Error(c, "Location is required", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	item, err := h.Service.CreateItem(c.Context(), labID, ident.UserID, CreateItemInput{
		LocationID:     body.LocationID,
		Name:           body.Name,
		Category:       body.Category,
		Vendor:         body.Vendor,
		CatalogNumber:  body.CatalogNumber,
		LotNumber:      body.LotNumber,
		Quantity:       body.Quantity,
		Unit:           body.Unit,
		MinQuantity:    body.MinQuantity,
		ExpirationDate: body.ExpirationDate,
		OpenedDate:     body.OpenedDate,
		Remarks:        body.Remarks,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.SuccessCreated(c, "Item created", item, nil)
}

// GET /api/v1/labs/:labId/items/:itemId
func (h *Handlers) Get(c *fiber.Ctx) error {
	labID, itemID, err := labAndItem(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	item, err := h.Service.GetItem(c.Context(), labID, itemID, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Item fetched", item, nil)
}

// PUT /api/v1/labs/:labId/items/:itemId
func (h *Handlers) Update(c *fiber.Ctx) error {
	labID, itemID, err := labAndItem(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	var body struct {
		Name           *string    `json:"name"`
		Category       *string    `json:"category"`
		Vendor         *string    `json:"vendor"`
		CatalogNumber  *string    `json:"catalog_number"`
		LotNumber      *string    `json:"lot_number"`
		Quantity       *float64   `json:"quantity"`
		Unit           *string    `json:"unit"`
		MinQuantity    *float64   `json:"min_quantity"`
		ExpirationDate *time.Time `json:"expiration_date"`
		OpenedDate     *time.Time `json:"opened_date"`
		Remarks        *string    `json:"remarks"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	item, err := h.Service.UpdateItem(c.Context(), labID, itemID, ident.UserID, UpdateItemInput{
		Name:           body.Name,
		Category:       body.Category,
		Vendor:         body.Vendor,
		CatalogNumber:  body.CatalogNumber,
		LotNumber:      body.LotNumber,
		Quantity:       body.Quantity,
		Unit:           body.Unit,
		MinQuantity:    body.MinQuantity,
		ExpirationDate: body.ExpirationDate,
		OpenedDate:     body.OpenedDate,
		Remarks:        body.Remarks,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Item updated", item, nil)
}

// DELETE /api/v1/labs/:labId/items/:itemId
func (h *Handlers) Delete(c *fiber.Ctx) error {
	labID, itemID, err := labAndItem(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	if err := h.Service.DeleteItem(c.Context(), labID, itemID, ident.UserID); err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Item deleted", nil, nil)
}

// POST /api/v1/labs/:labId/items/:itemId/move
func (h *Handlers) Move(c *fiber.Ctx) error {
	labID, itemID, err := labAndItem(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	var body struct {
		ToLocationID uuid.UUID `json:"to_location_id"`
		Quantity     *float64  `json:"quantity"`
		Notes        *string   `json:"notes"`
	}
	if err := c.BodyParser(&body); err != nil || body.ToLocationID == uuid.Nil {
		return response.Error(c, "Target location is required", 400, nil)
	}

	ident := middleware.GetIdentity(c)
	movement, item, err := h.Service.MoveItem(c.Context(), labID, itemID, ident.UserID, MoveItemInput{
		ToLocationID: body.ToLocationID,
		Quantity:     body.Quantity,
		Notes:        body.Notes,
	})
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Item moved", fiber.Map{
		"movement": movement,
		"item":     item,
	}, nil)
}

// GET /api/v1/labs/:labId/items/:itemId/movements
func (h *Handlers) Movements(c *fiber.Ctx) error {
	labID, itemID, err := labAndItem(c)
	if err != nil {
		return response.Error(c, "Invalid id", 400, nil)
	}
	ident := middleware.GetIdentity(c)
	movements, err := h.Service.Movements(c.Context(), labID, itemID, ident.UserID)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Movements fetched", movements, nil)
}

// GET /api/v1/labs/:labId/expiring?days=N
func (h *Handlers) Expiring(c *fiber.Ctx) error {
	labID, err := uuid.Parse(c.Params("labId"))
	if err != nil {
		return response.Error(c, "Invalid lab id", 400, nil)
	}
	days, _ := strconv.Atoi(c.Query("days", "30"))

	ident := middleware.GetIdentity(c)
	report, err := h.Service.ExpiringItems(c.Context(), labID, ident.UserID, days)
	if err != nil {
		return response.Error(c, err.Error(), apperr.StatusCode(err), nil)
	}
	return response.Success(c, "Expiration report fetched", report, nil)
}
