package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/condo-ledger/internal/api"
	"github.com/rongwang/condo-ledger/internal/config"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/repository"
	"github.com/rongwang/condo-ledger/internal/service"
	"github.com/rongwang/condo-ledger/internal/storage"
	"github.com/rongwang/condo-ledger/internal/utils"
	"github.com/stretchr/testify/require"
)

const (
	AdminEmail = "admin@example.com"
	UserEmail  = "resident@example.com"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	Mailer     *CaptureMailer
	JWTSecret  []byte
	DB         *sqlx.DB

	AdminID  string
	AdminJWT string
	UserID   string
	UserJWT  string
}

// CaptureMailer keeps the last sign-in link sent to each address
type CaptureMailer struct {
	Links map[string]string
}

func (m *CaptureMailer) SendMagicLink(ctx context.Context, email, link string) error {
	m.Links[email] = link
	return nil
}

// SetupTestContext creates a new test context backed by a temporary sqlite
// database and attachment directory
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Database: config.DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(dir, "condo_test.db"),
		},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-key",
			AdminEmails: []string{AdminEmail},
		},
		Storage: config.StorageConfig{
			Driver:   "local",
			LocalDir: filepath.Join(dir, "attachments"),
		},
	}

	// Set up database
	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")

	// Create repository
	repo := repository.NewSQLRepository(db)

	blobs, err := storage.New(context.Background(), cfg.Storage)
	require.NoError(t, err, "Failed to set up attachment storage")

	// Create service
	logger := utils.NewDiscardLogger()
	mailer := &CaptureMailer{Links: make(map[string]string)}
	svc := service.NewDefaultService(repo, blobs, mailer, logger, cfg)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	adminID, adminJWT := createTestUser(t, repo, cfg.Auth.JWTSecret, AdminEmail, models.RoleAdmin)
	userID, userJWT := createTestUser(t, repo, cfg.Auth.JWTSecret, UserEmail, models.RoleUser)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Mailer:     mailer,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		DB:         db,
		AdminID:    adminID,
		AdminJWT:   adminJWT,
		UserID:     userID,
		UserJWT:    userJWT,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	if t.DB != nil {
		t.DB.Close()
	}
}

// Helper functions
func createTestUser(t *testing.T, repo repository.Repository, jwtSecret, email, role string) (string, string) {
	user := &models.User{
		Email: email,
		Name:  strings.SplitN(email, "@", 2)[0],
		Role:  role,
	}

	err := repo.CreateUser(context.Background(), user)
	require.NoError(t, err, "Failed to create test user")

	// Generate JWT token with the provided secret key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request with a JSON body against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PerformFormRequest posts URL encoded form fields
func PerformFormRequest(r http.Handler, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PerformUpload posts a multipart form with one file in the "file" field
func PerformUpload(r http.Handler, path string, fields map[string]string, filename string, content []byte, headers map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	part, _ := mw.CreateFormFile("file", filename)
	_, _ = part.Write(content)
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeJSON unmarshals a response body into a generic map
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
