package authController

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupApp(t *testing.T) *fiber.App {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{JWTKey: "test-secret"}

	app := fiber.New()
	app.Post("/auth/register", authValidator.Register(), Register)
	app.Post("/auth/login", authValidator.Login(), Login)
	app.Get("/me", middleware.JWTMiddleware, func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "ok", c.Locals("userId"))
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]interface{}) *http.Response {
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	resp := postJSON(t, app, "/auth/register", map[string]interface{}{
		"name":     "Test Student",
		"email":    "a@example.com",
		"password": "secret-pass",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Stored password is hashed, never the plaintext
	var user models.User
	require.NoError(t, database.Database.Db.Where("email = ?", "a@example.com").First(&user).Error)
	assert.NotEqual(t, "secret-pass", user.Password)
	assert.NotEmpty(t, user.Password)

	// Duplicate email is a conflict
	resp = postJSON(t, app, "/auth/register", map[string]interface{}{
		"name":     "Someone Else",
		"email":    "a@example.com",
		"password": "another-pass",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Login yields a token that passes the JWT middleware
	resp = postJSON(t, app, "/auth/login", map[string]interface{}{
		"email":    "a@example.com",
		"password": "secret-pass",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Data.Token)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	meResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, meResp.StatusCode)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := setupApp(t)

	resp := postJSON(t, app, "/auth/register", map[string]interface{}{
		"name":     "Test Student",
		"email":    "a@example.com",
		"password": "secret-pass",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", map[string]interface{}{
		"email":    "a@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "secret-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
