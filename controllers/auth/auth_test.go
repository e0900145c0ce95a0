package authController

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
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

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserSession{}))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{
		JWTKey:    "test-secret",
		SaltRound: 4,
	}

	return db
}

// fakeFaceService answers detect calls with a fixed embedding and verify
// calls with the given match result
func fakeFaceService(t *testing.T, isMatch bool, similarity float64) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/verify-face" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":    true,
				"is_match":   isMatch,
				"similarity": similarity,
				"confidence": 0.95,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"embedding":  []float64{0.1, 0.2, 0.3},
			"confidence": 0.99,
		})
	}))
	t.Cleanup(server.Close)

	config.AppConfig.FaceServiceURL = server.URL
	return server
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Post("/auth/register", authValidator.Register(), Register)
	app.Post("/auth/login", authValidator.Login(), Login)
	app.Post("/auth/refresh-token", authValidator.RefreshToken(), RefreshToken)
	return app
}

func registerRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("faceImage", "face.jpg")
	require.NoError(t, err)
	part.Write([]byte("not-a-real-jpeg"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/auth/register", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func postJSON(t *testing.T, app *fiber.App, url string, payload interface{}) (*http.Response, fiber.Map) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed fiber.Map
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	app := newAuthApp()

	resp, err := app.Test(registerRequest(t, map[string]string{
		"firstName": "Sam",
		"lastName":  "Student",
		"email":     "Sam@Example.com",
		"password":  "s3cret-password",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Email is normalized and the student gets a roll number
	var user models.User
	require.NoError(t, db.Where("email = ?", "sam@example.com").First(&user).Error)
	assert.Equal(t, "student", user.Role)
	require.NotNil(t, user.RollNumber)
	assert.Regexp(t, `^RN\d{6}$`, *user.RollNumber)
	assert.NotEqual(t, "s3cret-password", user.Password)

	loginResp, loginBody := postJSON(t, app, "/auth/login", fiber.Map{
		"email":    "sam@example.com",
		"password": "s3cret-password",
	})
	assert.Equal(t, fiber.StatusOK, loginResp.StatusCode)

	data, ok := loginBody["data"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["refreshToken"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	app := newAuthApp()

	fields := map[string]string{
		"firstName": "Sam",
		"lastName":  "Student",
		"email":     "sam@example.com",
		"password":  "s3cret-password",
	}

	resp, err := app.Test(registerRequest(t, fields), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(registerRequest(t, fields), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	app := newAuthApp()

	resp, err := app.Test(registerRequest(t, map[string]string{
		"firstName": "Sam",
		"lastName":  "Student",
		"email":     "sam@example.com",
		"password":  "s3cret-password",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	loginResp, _ := postJSON(t, app, "/auth/login", fiber.Map{
		"email":    "sam@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, loginResp.StatusCode)
}

func loginFaceRequest(t *testing.T, email string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("email", email))
	part, err := writer.CreateFormFile("faceImage", "capture.jpg")
	require.NoError(t, err)
	part.Write([]byte("not-a-real-jpeg"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/auth/login", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestLoginWithFaceImageOnly(t *testing.T) {
	setupTestDB(t)
	fakeFaceService(t, true, 0.95)
	app := newAuthApp()

	resp, err := app.Test(registerRequest(t, map[string]string{
		"firstName": "Sam",
		"lastName":  "Student",
		"email":     "sam@example.com",
		"password":  "s3cret-password",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// A matching face stands in for the password entirely
	loginResp, err := app.Test(loginFaceRequest(t, "sam@example.com"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, loginResp.StatusCode)

	var parsed fiber.Map
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&parsed))
	data := parsed["data"].(map[string]interface{})
	assert.NotEmpty(t, data["accessToken"])

	verification, ok := data["faceVerification"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, verification["verified"])
	assert.InDelta(t, 0.95, verification["similarity"], 0.001)
}

func TestLoginFaceMismatch(t *testing.T) {
	setupTestDB(t)
	fakeFaceService(t, false, 0.21)
	app := newAuthApp()

	resp, err := app.Test(registerRequest(t, map[string]string{
		"firstName": "Sam",
		"lastName":  "Student",
		"email":     "sam@example.com",
		"password":  "s3cret-password",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	loginResp, err := app.Test(loginFaceRequest(t, "sam@example.com"), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, loginResp.StatusCode)
}

func TestLoginWithoutAnyFactor(t *testing.T) {
	setupTestDB(t)
	app := newAuthApp()

	// Neither a password nor a face image is a validation error
	loginResp, _ := postJSON(t, app, "/auth/login", fiber.Map{
		"email": "sam@example.com",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, loginResp.StatusCode)
}

func TestRefreshTokenRotation(t *testing.T) {
	db := setupTestDB(t)
	fakeFaceService(t, true, 0.92)
	app := newAuthApp()

	resp, err := app.Test(registerRequest(t, map[string]string{
		"firstName": "Sam",
		"lastName":  "Student",
		"email":     "sam@example.com",
		"password":  "s3cret-password",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, loginBody := postJSON(t, app, "/auth/login", fiber.Map{
		"email":    "sam@example.com",
		"password": "s3cret-password",
	})
	data := loginBody["data"].(map[string]interface{})
	oldToken := data["refreshToken"].(string)

	refreshResp, refreshBody := postJSON(t, app, "/auth/refresh-token", fiber.Map{
		"refreshToken": oldToken,
	})
	assert.Equal(t, fiber.StatusOK, refreshResp.StatusCode)

	newData := refreshBody["data"].(map[string]interface{})
	assert.NotEmpty(t, newData["accessToken"])
	assert.NotEqual(t, oldToken, newData["refreshToken"])

	// The old token is retired
	var count int64
	db.Model(&models.UserSession{}).Where("refresh_token = ?", oldToken).Count(&count)
	assert.Equal(t, int64(0), count)

	refreshResp, _ = postJSON(t, app, "/auth/refresh-token", fiber.Map{
		"refreshToken": oldToken,
	})
	assert.Equal(t, fiber.StatusUnauthorized, refreshResp.StatusCode)
}

func TestGeneratedTokensCarryClaims(t *testing.T) {
	setupTestDB(t)

	token, err := middleware.GenerateJWT(7, "sam@example.com", "student", middleware.AccessTokenTTL)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
