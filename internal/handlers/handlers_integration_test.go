package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	blogapp "blogapi/internal/app"
	"blogapi/internal/config"
	"blogapi/internal/database"
	"blogapi/internal/repositories"
	"blogapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		DBDriver:    "sqlite",
		DatabaseDSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
		LogLevel:    "error",
	}
	db, err := database.Open(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	// Initialize Repositories
	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	// Initialize Services
	tokens := services.NewTokenService(testJWTSecret, 15*time.Minute, 720*time.Hour)
	authService := services.NewAuthService(userRepo, tokens, bcrypt.MinCost, nil, log)
	postService := services.NewPostService(postRepo, nil, log)

	return blogapp.New(blogapp.Options{
		AuthService: authService,
		PostService: postService,
		Logger:      log,
	})
}

// doRequest sends body as JSON (when non-nil) with an optional bearer token
// and decodes the JSON response, if any.
func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return resp.StatusCode, decoded
}

type session struct {
	access   string
	refresh  string
	username string
}

func registerAndLogin(t *testing.T, app *fiber.App, email, password string) session {
	t.Helper()
	credentials := map[string]string{"email": email, "password": password}

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", credentials, "")
	require.Equal(t, http.StatusCreated, status)

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/auth/login", credentials, "")
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	return session{
		access:   user["access"].(string),
		refresh:  user["refresh"].(string),
		username: user["username"].(string),
	}
}

func createPost(t *testing.T, app *fiber.App, token, title, content string) map[string]interface{} {
	t.Helper()
	status, body := doRequest(t, app, http.MethodPost, "/api/v1/post/",
		map[string]string{"title": title, "content": content}, token)
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	return body
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	// Test Registration
	credentials := map[string]string{"email": "test@example.com", "password": "password123"}
	status, body := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", credentials, "")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User created", body["message"])
	assert.Equal(t, map[string]interface{}{"email": "test@example.com"}, body["user"])

	// Test Duplicate Registration
	status, body = doRequest(t, app, http.MethodPost, "/api/v1/auth/register", credentials, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email is taken", body["error"])

	// Test Login
	status, body = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", credentials, "")
	assert.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.NotEmpty(t, user["access"])
	assert.NotEmpty(t, user["refresh"])
	assert.Equal(t, "test", user["username"])
	assert.Equal(t, "test@example.com", user["email"])

	// Test Me
	status, body = doRequest(t, app, http.MethodGet, "/api/v1/auth/me", nil, user["access"].(string))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"username": "test", "email": "test@example.com"}, body)
}

func TestAuthRegisterValidation(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"invalid email", map[string]string{"email": "nope", "password": "password123"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "a@example.com", "password": "12345"}, http.StatusBadRequest},
		{"missing password", map[string]string{"email": "a@example.com"}, http.StatusBadRequest},
		{"wrong shape", []int{1, 2}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", tt.body, "")
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAuthLoginMissingPasswordIsUnauthorized(t *testing.T) {
	app := setupApp(t)
	registerAndLogin(t, app, "nopass@example.com", "password123")

	bodies := []map[string]string{
		{"email": "nopass@example.com", "password": ""},
		{"email": "nopass@example.com"},
		{"password": "password123"},
		{},
	}
	for _, b := range bodies {
		status, body := doRequest(t, app, http.MethodPost, "/api/v1/auth/login", b, "")
		assert.Equal(t, http.StatusUnauthorized, status, "body %v", b)
		assert.Equal(t, "Wrong credentials", body["error"], "body %v", b)
	}
}

func TestAuthRegisterTakenEmailWinsOverPasswordChecks(t *testing.T) {
	app := setupApp(t)
	registerAndLogin(t, app, "taken@example.com", "password123")

	for _, b := range []map[string]string{
		{"email": "taken@example.com", "password": ""},
		{"email": "taken@example.com"},
		{"email": "taken@example.com", "password": "123"},
	} {
		status, body := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", b, "")
		assert.Equal(t, http.StatusConflict, status, "body %v", b)
		assert.Equal(t, "Email is taken", body["error"], "body %v", b)
	}

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"password": "password123"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email is not valid", body["error"])
}

func TestUnknownRouteAndHealth(t *testing.T) {
	app := setupApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/posts/none", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body["error"])

	status, body = doRequest(t, app, http.MethodGet, "/api/v1/", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "It's working", body["message"])
}

func TestAuthLoginFailuresAreIdentical(t *testing.T) {
	app := setupApp(t)
	registerAndLogin(t, app, "known@example.com", "password123")

	status1, body1 := doRequest(t, app, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "known@example.com", "password": "wrong-password"}, "")
	status2, body2 := doRequest(t, app, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "unknown@example.com", "password": "password123"}, "")

	assert.Equal(t, http.StatusUnauthorized, status1)
	assert.Equal(t, status1, status2)
	assert.Equal(t, body1, body2)
	assert.Equal(t, "Wrong credentials", body1["error"])
}

func TestAuthTokens(t *testing.T) {
	app := setupApp(t)
	s := registerAndLogin(t, app, "tokens@example.com", "password123")

	// Refresh with the refresh token.
	status, body := doRequest(t, app, http.MethodGet, "/api/v1/auth/token/refresh", nil, s.refresh)
	require.Equal(t, http.StatusOK, status)
	newAccess := body["access"].(string)
	assert.NotEmpty(t, newAccess)

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/auth/me", nil, newAccess)
	assert.Equal(t, http.StatusOK, status)

	// Token types are not interchangeable.
	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/auth/token/refresh", nil, s.access)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/auth/me", nil, s.refresh)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Missing or malformed headers.
	status, body = doRequest(t, app, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing Authorization Header", body["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Token "+s.access)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/auth/token/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPostCRUD(t *testing.T) {
	app := setupApp(t)
	s := registerAndLogin(t, app, "writer@example.com", "password123")

	created := createPost(t, app, s.access, "Hello, World!", "First post")
	assert.Equal(t, "Hello, World!", created["title"])
	assert.Equal(t, "First post", created["content"])
	assert.True(t, strings.HasPrefix(created["slug"].(string), "hello-world-"), created["slug"])
	assert.Equal(t, "draft", created["status"])
	author := created["author"].(map[string]interface{})
	assert.Equal(t, "writer", author["username"])
	assert.NotZero(t, author["id"])
	_, err := time.Parse(time.RFC3339, created["created_at"].(string))
	assert.NoError(t, err)
	_, err = time.Parse(time.RFC3339, created["updated_at"].(string))
	assert.NoError(t, err)
	assert.NotContains(t, created, "password")

	id := int(created["id"].(float64))
	path := fmt.Sprintf("/api/v1/post/%d", id)

	// Public read.
	status, body := doRequest(t, app, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created["slug"], body["slug"])

	// Partial update keeps the slug.
	status, body = doRequest(t, app, http.MethodPut, path, map[string]string{"title": "Renamed"}, s.access)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", body["title"])
	assert.Equal(t, "First post", body["content"])
	assert.Equal(t, created["slug"], body["slug"])

	status, body = doRequest(t, app, http.MethodPatch, path, map[string]string{"content": "Edited"}, s.access)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", body["title"])
	assert.Equal(t, "Edited", body["content"])

	status, body = doRequest(t, app, http.MethodPut, path, map[string]string{"content": ""}, s.access)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])

	// Delete.
	status, body = doRequest(t, app, http.MethodDelete, path, nil, s.access)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, body)

	status, body = doRequest(t, app, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}

func TestPostCreateValidation(t *testing.T) {
	app := setupApp(t)
	s := registerAndLogin(t, app, "v@example.com", "password123")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing content", map[string]string{"title": "x"}},
		{"empty title", map[string]string{"title": "", "content": "x"}},
		{"title too long", map[string]string{"title": strings.Repeat("t", 61), "content": "x"}},
		{"tag too long", map[string]string{"title": "t", "content": "x", "tag": strings.Repeat("g", 21)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, http.MethodPost, "/api/v1/post/", tt.body, s.access)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPostEndpointsWithoutAuth(t *testing.T) {
	app := setupApp(t)
	s := registerAndLogin(t, app, "owner@example.com", "password123")
	created := createPost(t, app, s.access, "Owned", "content")
	path := fmt.Sprintf("/api/v1/post/%d", int(created["id"].(float64)))

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/post/", map[string]string{"title": "t", "content": "c"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = doRequest(t, app, http.MethodPut, path, map[string]string{"title": "t"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = doRequest(t, app, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = doRequest(t, app, http.MethodGet, path, nil, "invalid.token.string")
	assert.Equal(t, http.StatusOK, status, "reads are public")
}

func TestPostOwnership(t *testing.T) {
	app := setupApp(t)
	owner := registerAndLogin(t, app, "owner@example.com", "password123")
	other := registerAndLogin(t, app, "other@example.com", "password123")

	created := createPost(t, app, owner.access, "Mine", "content")
	path := fmt.Sprintf("/api/v1/post/%d", int(created["id"].(float64)))

	status, _ := doRequest(t, app, http.MethodPut, path, map[string]string{"title": "Stolen"}, other.access)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = doRequest(t, app, http.MethodDelete, path, nil, other.access)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := doRequest(t, app, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Mine", body["title"])
}

func TestPostIDs(t *testing.T) {
	app := setupApp(t)
	s := registerAndLogin(t, app, "ids@example.com", "password123")

	for _, id := range []string{"abc", "0", "-1", "1.5", "999"} {
		status, body := doRequest(t, app, http.MethodGet, "/api/v1/post/"+id, nil, "")
		assert.Equal(t, http.StatusNotFound, status, "id %s", id)
		assert.NotEmpty(t, body["error"])

		status, _ = doRequest(t, app, http.MethodDelete, "/api/v1/post/"+id, nil, s.access)
		assert.Equal(t, http.StatusNotFound, status, "id %s", id)
	}
}

func TestPostPagination(t *testing.T) {
	app := setupApp(t)
	s := registerAndLogin(t, app, "pager@example.com", "password123")

	// Empty collection: page 1 is fine.
	status, body := doRequest(t, app, http.MethodGet, "/api/v1/post/", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	for i := 0; i < 12; i++ {
		createPost(t, app, s.access, fmt.Sprintf("Post number %d", i), "body")
	}

	// Defaults: page 1, five per page.
	status, body = doRequest(t, app, http.MethodGet, "/api/v1/post/", nil, "")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]interface{})
	assert.Len(t, data, 5)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["page"])
	assert.Equal(t, float64(3), meta["pages"])
	assert.Equal(t, float64(12), meta["total_count"])
	assert.Nil(t, meta["prev_page"])
	assert.Equal(t, float64(2), meta["next_page"])
	assert.Equal(t, true, meta["has_next"])
	assert.Equal(t, false, meta["has_prev"])
	first := data[0].(map[string]interface{})
	assert.Equal(t, "Post number 0", first["title"])
	assert.Equal(t, "pager", first["author"].(map[string]interface{})["username"])

	status, body = doRequest(t, app, http.MethodGet, "/api/v1/post/?page=3&per_page=5", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)
	meta = body["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["prev_page"])
	assert.Nil(t, meta["next_page"])
	assert.Equal(t, false, meta["has_next"])
	assert.Equal(t, true, meta["has_prev"])

	// Non-numeric values fall back to defaults.
	status, body = doRequest(t, app, http.MethodGet, "/api/v1/post/?page=abc&per_page=xyz", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 5)

	for _, query := range []string{"?page=4", "?page=0", "?page=-2", "?per_page=0"} {
		status, body = doRequest(t, app, http.MethodGet, "/api/v1/post/"+query, nil, "")
		assert.Equal(t, http.StatusNotFound, status, query)
		assert.NotEmpty(t, body["error"])
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	app := setupApp(t)
	leaving := registerAndLogin(t, app, "leaving@example.com", "password123")
	staying := registerAndLogin(t, app, "staying@example.com", "password123")

	createPost(t, app, leaving.access, "Gone soon", "x")
	createPost(t, app, leaving.access, "Also gone", "x")
	kept := createPost(t, app, staying.access, "Still here", "x")

	status, _ := doRequest(t, app, http.MethodDelete, "/api/v1/auth/me", nil, leaving.access)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/auth/me", nil, leaving.access)
	assert.Equal(t, http.StatusUnauthorized, status, "tokens of a deleted account stop resolving")

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/post/", nil, "")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, kept["id"], data[0].(map[string]interface{})["id"])
}
