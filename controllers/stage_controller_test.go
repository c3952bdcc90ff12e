package controller

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"dealdesk/models"
	"dealdesk/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newStageTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "stages.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Stage{}))

	hub := realtime.NewHub(realtime.NewCache(nil), nil)
	sc := NewStageController(db, hub, log.New(os.Stdout, "STAGE: ", log.LstdFlags))

	app := fiber.New()
	app.Post("/stages", sc.CreateStage)
	app.Put("/stages/:id", sc.UpdateStage)
	return app, db
}

func stageRequest(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCreateStageRejectsDuplicateDisplayOrder(t *testing.T) {
	app, _ := newStageTestApp(t)

	resp := stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "Lead", "division": "residential", "display_order": 0,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "Qualified", "division": "residential", "display_order": 0,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// The same slot is free in another division.
	resp = stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "Prospect", "division": "investment-sales", "display_order": 0,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestUpdateStageRejectsOccupiedDisplayOrder(t *testing.T) {
	app, _ := newStageTestApp(t)

	resp := stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "Lead", "division": "residential", "display_order": 0,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "Qualified", "division": "residential", "display_order": 1,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = stageRequest(t, app, http.MethodPut, "/stages/2", fiber.Map{
		"display_order": 0,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestReactivatingStageRechecksDisplayOrder(t *testing.T) {
	app, db := newStageTestApp(t)

	// Stage A takes slot 2, gets deactivated, stage B legally moves into
	// the freed slot.
	resp := stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "Under Contract", "division": "residential", "display_order": 2,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = stageRequest(t, app, http.MethodPut, "/stages/1", fiber.Map{
		"is_active": false,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = stageRequest(t, app, http.MethodPost, "/stages", fiber.Map{
		"name": "In Escrow", "division": "residential", "display_order": 2,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Bringing A back would put two active stages on slot 2.
	resp = stageRequest(t, app, http.MethodPut, "/stages/1", fiber.Map{
		"is_active": true,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var reloaded models.Stage
	require.NoError(t, db.First(&reloaded, 1).Error)
	assert.False(t, reloaded.IsActive, "rejected reactivation must not be persisted")

	// Moving A to a free slot in the same request succeeds.
	resp = stageRequest(t, app, http.MethodPut, "/stages/1", fiber.Map{
		"is_active": true, "display_order": 3,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&reloaded, 1).Error)
	assert.True(t, reloaded.IsActive)
	assert.Equal(t, 3, reloaded.DisplayOrder)
}
