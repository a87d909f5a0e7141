package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"shelftrack/internal/adapters/http/middleware"
	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/config"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "api_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		AppMode: "dev",
		Port:    "8000",
		JWT: config.JWTConfig{
			Secret:           "test_secret",
			RefreshSecret:    "test_refresh_secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.CustomErrorHandler,
	})
	Setup(app, db, cfg)

	return app, db
}

type apiResult struct {
	status int
	body   response.Response
	data   json.RawMessage
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) apiResult {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Code    string          `json:"code"`
	}
	// 204 responses carry no body
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &envelope), "body: %s", raw)
	}

	return apiResult{
		status: resp.StatusCode,
		body: response.Response{
			Success: envelope.Success,
			Message: envelope.Message,
			Error:   envelope.Error,
			Code:    envelope.Code,
		},
		data: envelope.Data,
	}
}

func createTestMember(t *testing.T, app *fiber.App, email string) uint {
	t.Helper()

	res := doJSON(t, app, http.MethodPost, "/members", fiber.Map{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
	})
	require.Equal(t, http.StatusCreated, res.status)

	var member models.Member
	require.NoError(t, json.Unmarshal(res.data, &member))
	return member.ID
}

func createTestItem(t *testing.T, app *fiber.App, code string, available, total int) uint {
	t.Helper()

	res := doJSON(t, app, http.MethodPost, "/items", fiber.Map{
		"code":             code,
		"title":            "Dune",
		"author":           "Frank Herbert",
		"genre":            "Science Fiction",
		"available_copies": available,
		"total_copies":     total,
	})
	require.Equal(t, http.StatusCreated, res.status)

	var item models.Item
	require.NoError(t, json.Unmarshal(res.data, &item))
	return item.ID
}

func getItemAvailable(t *testing.T, app *fiber.App, itemID uint) int {
	t.Helper()

	res := doJSON(t, app, http.MethodGet, fmt.Sprintf("/items/%d", itemID), nil)
	require.Equal(t, http.StatusOK, res.status)

	var item models.Item
	require.NoError(t, json.Unmarshal(res.data, &item))
	return item.AvailableCopies
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	res := doJSON(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, res.status)
}

func TestMemberDuplicateEmailReturns400(t *testing.T) {
	app, _ := newTestApp(t)

	createTestMember(t, app, "ada@example.com")

	res := doJSON(t, app, http.MethodPost, "/members", fiber.Map{
		"first_name": "Augusta",
		"last_name":  "King",
		"email":      "ada@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeConflict, res.body.Code)
	assert.Equal(t, "Email already registered", res.body.Error)
}

func TestMemberValidation(t *testing.T) {
	app, _ := newTestApp(t)

	res := doJSON(t, app, http.MethodPost, "/members", fiber.Map{
		"first_name": "Ada",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeInvalidArgument, res.body.Code)
}

func TestItemDuplicateCodeReturns400(t *testing.T) {
	app, _ := newTestApp(t)

	createTestItem(t, app, "BK-001", 1, 1)

	res := doJSON(t, app, http.MethodPost, "/items", fiber.Map{
		"code":   "BK-001",
		"title":  "Other",
		"author": "Author",
	})

	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeConflict, res.body.Code)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	memberID := createTestMember(t, app, "ada@example.com")
	itemID := createTestItem(t, app, "BK-001", 1, 1)

	// Issue the only copy
	res := doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   itemID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusCreated, res.status)

	var loan models.Loan
	require.NoError(t, json.Unmarshal(res.data, &loan))
	assert.Equal(t, models.LoanStatusBorrowed, loan.Status)
	assert.Equal(t, 0, getItemAvailable(t, app, itemID))

	// A second borrower is refused while no copies remain
	otherID := createTestMember(t, app, "bob@example.com")
	res = doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   itemID,
		"member_id": otherID,
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeInvalidState, res.body.Code)

	// Return restores the copy
	res = doJSON(t, app, http.MethodPut, fmt.Sprintf("/loans/%d/return", loan.ID), nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, 1, getItemAvailable(t, app, itemID))

	// Returning again is refused
	res = doJSON(t, app, http.MethodPut, fmt.Sprintf("/loans/%d/return", loan.ID), nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeInvalidState, res.body.Code)

	// The closed loan shows up in the member's history
	res = doJSON(t, app, http.MethodGet, fmt.Sprintf("/members/%d/loans", memberID), nil)
	require.Equal(t, http.StatusOK, res.status)

	var page struct {
		Data []models.Loan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.data, &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.LoanStatusReturned, page.Data[0].Status)

	// Deleting the closed record answers 204 and leaves the counter alone
	res = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/loans/%d", loan.ID), nil)
	require.Equal(t, http.StatusNoContent, res.status)
	assert.Equal(t, 1, getItemAvailable(t, app, itemID))
}

func TestDuplicateActiveLoanReturns400(t *testing.T) {
	app, _ := newTestApp(t)

	memberID := createTestMember(t, app, "ada@example.com")
	itemID := createTestItem(t, app, "BK-001", 3, 3)

	res := doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   itemID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusCreated, res.status)

	res = doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   itemID,
		"member_id": memberID,
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeConflict, res.body.Code)
}

func TestIssueLoanUnknownReferencesReturn404(t *testing.T) {
	app, _ := newTestApp(t)

	memberID := createTestMember(t, app, "ada@example.com")
	itemID := createTestItem(t, app, "BK-001", 1, 1)

	res := doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   9999,
		"member_id": memberID,
	})
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, response.CodeNotFound, res.body.Code)

	res = doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   itemID,
		"member_id": 9999,
	})
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestDeleteMemberWithActiveLoanReturns400(t *testing.T) {
	app, _ := newTestApp(t)

	memberID := createTestMember(t, app, "ada@example.com")
	itemID := createTestItem(t, app, "BK-001", 1, 1)

	res := doJSON(t, app, http.MethodPost, "/loans", fiber.Map{
		"item_id":   itemID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusCreated, res.status)

	res = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/members/%d", memberID), nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeConflict, res.body.Code)

	res = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/items/%d", itemID), nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeConflict, res.body.Code)
}

func TestSearchItemsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	createTestItem(t, app, "BK-001", 1, 1)

	res := doJSON(t, app, http.MethodGet, "/search/items?title=dune", nil)
	require.Equal(t, http.StatusOK, res.status)

	var items []models.Item
	require.NoError(t, json.Unmarshal(res.data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "BK-001", items[0].Code)

	// A search without criteria is rejected
	res = doJSON(t, app, http.MethodGet, "/search/items", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, response.CodeInvalidArgument, res.body.Code)
}

func TestAuthFlowOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)

	res := doJSON(t, app, http.MethodPost, "/auth/register", fiber.Map{
		"username": "librarian",
		"email":    "librarian@example.com",
		"password": "supersecret1",
	})
	require.Equal(t, http.StatusCreated, res.status)

	var auth struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(res.data, &auth))
	require.NotEmpty(t, auth.AccessToken)

	// Protected endpoint rejects missing token
	res = doJSON(t, app, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	// And accepts the issued token
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Refresh rotates the token pair
	res = doJSON(t, app, http.MethodPost, "/auth/refresh", fiber.Map{
		"refresh_token": auth.RefreshToken,
	})
	require.Equal(t, http.StatusOK, res.status)
}

func TestUnknownRouteReturns404Envelope(t *testing.T) {
	app, _ := newTestApp(t)

	res := doJSON(t, app, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, response.CodeNotFound, res.body.Code)
}

func TestDeleteReturnsNoContent(t *testing.T) {
	app, _ := newTestApp(t)

	memberID := createTestMember(t, app, "ada@example.com")
	itemID := createTestItem(t, app, "BK-001", 1, 1)

	res := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/members/%d", memberID), nil)
	assert.Equal(t, http.StatusNoContent, res.status)
	assert.Empty(t, res.data)

	res = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/items/%d", itemID), nil)
	assert.Equal(t, http.StatusNoContent, res.status)
	assert.Empty(t, res.data)
}

func TestOverdueReportRequiresAdmin(t *testing.T) {
	app, db := newTestApp(t)

	// Anonymous callers are refused
	res := doJSON(t, app, http.MethodGet, "/loans/overdue", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, response.CodeUnauthorized, res.body.Code)

	res = doJSON(t, app, http.MethodPost, "/auth/register", fiber.Map{
		"username": "clerk",
		"email":    "clerk@example.com",
		"password": "supersecret1",
	})
	require.Equal(t, http.StatusCreated, res.status)

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(res.data, &auth))

	// The default staff role is not enough
	req := httptest.NewRequest(http.MethodGet, "/loans/overdue", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Promote the account and sign in again for a token carrying the new role
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", "clerk").
		Update("role", "ADMIN").Error)

	res = doJSON(t, app, http.MethodPost, "/auth/login", fiber.Map{
		"username": "clerk",
		"password": "supersecret1",
	})
	require.Equal(t, http.StatusOK, res.status)
	require.NoError(t, json.Unmarshal(res.data, &auth))

	req = httptest.NewRequest(http.MethodGet, "/loans/overdue", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthReportsStorageOutage(t *testing.T) {
	app, db := newTestApp(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	require.ErrorIs(t, config.HealthCheck(db), domain.ErrStorageUnavailable)

	res := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.status)
	assert.Equal(t, response.CodeStorageUnavailable, res.body.Code)
}
