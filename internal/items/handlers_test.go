package items

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"labstock-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp mounts the item routes behind a middleware that injects the fixture
// user as the resolved identity, the way ResolveIdentity does in production.
func testApp(f *itemFixture) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("identity", &middleware.Identity{
			UserID: f.user.UserID, Name: f.user.Name, Email: f.user.Email,
		})
		return c.Next()
	})

	h := &Handlers{Service: f.svc}
	lab := app.Group("/api/v1/labs/:labId", middleware.RequireIdentity())
	lab.Get("/items", h.List)
	lab.Post("/items", h.Create)
	lab.Get("/items/:itemId", h.Get)
	lab.Put("/items/:itemId", h.Update)
	lab.Delete("/items/:itemId", h.Delete)
	lab.Post("/items/:itemId/move", h.Move)
	lab.Get("/items/:itemId/movements", h.Movements)
	lab.Get("/expiring", h.Expiring)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp, parsed
}

func TestItemHandlers_CreateAndGet(t *testing.T) {
	f := setupItemTest(t)
	app := testApp(f)

	resp, body := doJSON(t, app, "POST", "/api/v1/labs/"+f.lab.LabID.String()+"/items", fiber.Map{
		"name":         "Acetone",
		"location_id":  f.shelf.LocationID,
		"quantity":     3,
		"unit":         "L",
		"min_quantity": 5,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Acetone", data["name"])
	assert.Equal(t, true, data["is_low_stock"])
	itemID := data["item_id"].(string)

	resp, body = doJSON(t, app, "GET", "/api/v1/labs/"+f.lab.LabID.String()+"/items/"+itemID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, "Acetone", data["name"])
	status := data["expiration_status"].(map[string]interface{})
	assert.Equal(t, "none", status["tier"])
}

func TestItemHandlers_CreateValidation(t *testing.T) {
	f := setupItemTest(t)
	app := testApp(f)
	base := "/api/v1/labs/" + f.lab.LabID.String() + "/items"

	resp, body := doJSON(t, app, "POST", base, fiber.Map{"location_id": f.shelf.LocationID})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", body["status"])

	resp, _ = doJSON(t, app, "POST", base, fiber.Map{"name": "X"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", base, fiber.Map{
		"name": "X", "location_id": f.shelf.LocationID, "quantity": -2,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestItemHandlers_MoveWritesLedger(t *testing.T) {
	f := setupItemTest(t)
	app := testApp(f)
	item := f.mustCreate(t, "Scale", 1)
	bench := f.addLocation(t, "Bench")

	path := fmt.Sprintf("/api/v1/labs/%s/items/%s/move", f.lab.LabID, item.ItemID)
	resp, body := doJSON(t, app, "POST", path, fiber.Map{"to_location_id": bench.LocationID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	movement := data["movement"].(map[string]interface{})
	assert.Equal(t, f.shelf.LocationID.String(), movement["from_location_id"])
	assert.Equal(t, bench.LocationID.String(), movement["to_location_id"])

	moved := data["item"].(map[string]interface{})
	assert.Equal(t, bench.LocationID.String(), moved["location_id"])

	resp, body = doJSON(t, app, "GET",
		fmt.Sprintf("/api/v1/labs/%s/items/%s/movements", f.lab.LabID, item.ItemID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]interface{}), 1)
}

func TestItemHandlers_MoveRequiresTarget(t *testing.T) {
	f := setupItemTest(t)
	app := testApp(f)
	item := f.mustCreate(t, "Scale", 1)

	path := fmt.Sprintf("/api/v1/labs/%s/items/%s/move", f.lab.LabID, item.ItemID)
	resp, _ := doJSON(t, app, "POST", path, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestItemHandlers_NotFoundAndBadIDs(t *testing.T) {
	f := setupItemTest(t)
	app := testApp(f)

	resp, _ := doJSON(t, app, "GET", "/api/v1/labs/not-a-uuid/items", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, "GET",
		fmt.Sprintf("/api/v1/labs/%s/items/%s", f.lab.LabID, "00000000-0000-0000-0000-000000000001"), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestItemHandlers_Unauthorized(t *testing.T) {
	f := setupItemTest(t)

	app := fiber.New()
	h := &Handlers{Service: f.svc}
	lab := app.Group("/api/v1/labs/:labId", middleware.RequireIdentity())
	lab.Get("/items", h.List)

	req := httptest.NewRequest("GET", "/api/v1/labs/"+f.lab.LabID.String()+"/items", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestItemHandlers_ExpiringReportShape(t *testing.T) {
	f := setupItemTest(t)
	app := testApp(f)
	_ = f.mustCreate(t, "Fresh", 1)

	resp, body := doJSON(t, app, "GET", "/api/v1/labs/"+f.lab.LabID.String()+"/expiring?days=30", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	_, hasExpiring := data["expiring"]
	_, hasExpired := data["expired"]
	assert.True(t, hasExpiring)
	assert.True(t, hasExpired)
}
