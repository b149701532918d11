package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// a pooled :memory: DSN opens a fresh empty database per connection
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	db = conn
	runMigrations()
	seedDB()
	r := gin.New()
	setupRoutes(r)
	return r
}

// registerAndLogin creates an account and returns its access token.
func registerAndLogin(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "pass123"}
	resp := performRequest(r, http.MethodPost, "/api/auth/register", jsonBody(t, creds), "")
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())
	resp = performRequest(r, http.MethodPost, "/api/auth/login", jsonBody(t, creds), "")
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())
	var loginResp map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &loginResp))
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthAndAuthGuard(t *testing.T) {
	r := setupTestServer(t)

	resp := performRequest(r, http.MethodGet, "/api/test", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	// everything under /api/categories and /api/expenses requires a token
	for _, path := range []string{"/api/categories", "/api/expenses"} {
		resp = performRequest(r, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
	resp = performRequest(r, http.MethodGet, "/api/expenses", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := setupTestServer(t)
	creds := map[string]string{"email": "dup@example.com", "password": "pass123"}

	resp := performRequest(r, http.MethodPost, "/api/auth/register", jsonBody(t, creds), "")
	assert.Equal(t, http.StatusCreated, resp.Code)
	resp = performRequest(r, http.MethodPost, "/api/auth/register", jsonBody(t, creds), "")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "user1@example.com")

	// defaults are visible before the user creates anything
	resp := performRequest(r, http.MethodGet, "/api/categories", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var cats []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cats))
	assert.Len(t, cats, len(defaultCategories))

	// create
	resp = performRequest(r, http.MethodPost, "/api/categories", jsonBody(t, gin.H{"name": "Groceries"}), token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	id := uint(created["id"].(float64))
	assert.Equal(t, false, created["is_default"])

	// missing and duplicate names
	resp = performRequest(r, http.MethodPost, "/api/categories", jsonBody(t, gin.H{"name": "  "}), token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = performRequest(r, http.MethodPost, "/api/categories", jsonBody(t, gin.H{"name": "Groceries"}), token)
	assert.Equal(t, http.StatusConflict, resp.Code)

	// rename
	resp = performRequest(r, http.MethodPut, fmt.Sprintf("/api/categories/%d", id), jsonBody(t, gin.H{"name": "Food Shopping"}), token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// default categories are not editable and the reason is not disclosed
	var defID uint
	for _, c := range cats {
		if c["is_default"] == true {
			defID = uint(c["id"].(float64))
			break
		}
	}
	resp = performRequest(r, http.MethodPut, fmt.Sprintf("/api/categories/%d", defID), jsonBody(t, gin.H{"name": "Hijacked"}), token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/categories/%d", defID), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// delete is refused while an expense references the category
	resp = performRequest(r, http.MethodPost, "/api/expenses", jsonBody(t, gin.H{"amount": 5.5, "category_id": id}), token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/categories/%d", id), nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// a second user can reuse the name, and sees neither of user1's categories
	token2 := registerAndLogin(t, r, "user2@example.com")
	resp = performRequest(r, http.MethodPost, "/api/categories", jsonBody(t, gin.H{"name": "Food Shopping"}), token2)
	assert.Equal(t, http.StatusCreated, resp.Code)
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/categories/%d", id), nil, token2)
	assert.Equal(t, http.StatusNotFound, resp.Code, "foreign category must look like it does not exist")
}

func TestExpenseEndpoints(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "user1@example.com")

	resp := performRequest(r, http.MethodPost, "/api/categories", jsonBody(t, gin.H{"name": "Groceries"}), token)
	require.Equal(t, http.StatusCreated, resp.Code)
	var cat map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cat))
	catID := uint(cat["id"].(float64))

	// create two categorized expenses and one uncategorized
	for _, body := range []gin.H{
		{"amount": 10.0, "date": "2026-08-01", "category_id": catID, "description": "veg"},
		{"amount": 2.5, "date": "2026-08-20", "category_id": catID},
		{"amount": 99.0, "date": "2026-08-10"},
	} {
		resp = performRequest(r, http.MethodPost, "/api/expenses", jsonBody(t, body), token)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	// list: date desc, joined category name, null name for the uncategorized one
	resp = performRequest(r, http.MethodGet, "/api/expenses", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, 2.5, list[0]["amount"])
	assert.Equal(t, "Groceries", list[0]["category_name"])
	assert.Equal(t, 99.0, list[1]["amount"])
	assert.Nil(t, list[1]["category_name"])
	assert.Equal(t, "manual", list[0]["source"])

	expID := uint(list[0]["id"].(float64))

	// get
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/expenses/%d", expID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = performRequest(r, http.MethodGet, "/api/expenses/999999", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// filtered list
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/expenses/category/%d", catID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var filtered []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &filtered))
	assert.Len(t, filtered, 2)

	// summary: totals per category, defaults zeroed, alphabetical
	resp = performRequest(r, http.MethodGet, "/api/expenses/summary/by-category", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var summary []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	require.Len(t, summary, len(defaultCategories)+1)
	var groceries map[string]any
	for _, row := range summary {
		if row["name"] == "Groceries" {
			groceries = row
		} else {
			assert.Equal(t, 0.0, row["total"], row["name"])
			assert.Equal(t, 0.0, row["count"], row["name"])
		}
	}
	require.NotNil(t, groceries)
	assert.Equal(t, 12.5, groceries["total"])
	assert.Equal(t, 2.0, groceries["count"])

	// full-replacement update
	resp = performRequest(r, http.MethodPut, fmt.Sprintf("/api/expenses/%d", expID),
		jsonBody(t, gin.H{"amount": 3.0, "date": "2026-08-21", "source": "import"}), token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, 3.0, updated["amount"])
	assert.Nil(t, updated["category_id"])
	assert.Equal(t, "import", updated["source"])

	// delete returns the removed record
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", expID), nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var delResp map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &delResp))
	assert.Equal(t, "Expense deleted", delResp["message"])
	require.NotNil(t, delResp["expense"])
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", expID), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// a second user sees none of it
	token2 := registerAndLogin(t, r, "user2@example.com")
	resp = performRequest(r, http.MethodGet, "/api/expenses", nil, token2)
	require.Equal(t, http.StatusOK, resp.Code)
	var otherList []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &otherList))
	assert.Empty(t, otherList)
}

func TestRefreshTokenRotation(t *testing.T) {
	r := setupTestServer(t)
	creds := map[string]string{"email": "user1@example.com", "password": "pass123"}
	resp := performRequest(r, http.MethodPost, "/api/auth/register", jsonBody(t, creds), "")
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = performRequest(r, http.MethodPost, "/api/auth/login", jsonBody(t, creds), "")
	require.Equal(t, http.StatusOK, resp.Code)
	var loginResp map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &loginResp))
	refresh, _ := loginResp["refresh_token"].(string)
	require.NotEmpty(t, refresh)

	// exchange works once
	resp = performRequest(r, http.MethodPost, "/api/auth/refresh", jsonBody(t, gin.H{"refresh_token": refresh}), "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var refreshResp map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshResp))
	rotated, _ := refreshResp["refresh_token"].(string)
	require.NotEmpty(t, rotated)
	assert.NotEqual(t, refresh, rotated)

	// the old token is revoked by rotation
	resp = performRequest(r, http.MethodPost, "/api/auth/refresh", jsonBody(t, gin.H{"refresh_token": refresh}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// logout revokes the rotated token
	resp = performRequest(r, http.MethodPost, "/api/auth/logout", jsonBody(t, gin.H{"refresh_token": rotated}), "")
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = performRequest(r, http.MethodPost, "/api/auth/refresh", jsonBody(t, gin.H{"refresh_token": rotated}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
