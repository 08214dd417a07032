// Package helpers starts the full HTTP stack against an in-memory database.
package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"reviewhub_backend/internal/app"
	"reviewhub_backend/internal/auth"
	"reviewhub_backend/internal/config"
	"reviewhub_backend/test/testdb"

	"gorm.io/gorm"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "correct-horse-battery"
	CronSecret    = "cron-secret-for-tests"
)

type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Config *config.Config

	client *http.Client
}

// TestConfig returns the configuration the test server runs with. Optional
// integrations stay unconfigured unless a test supplies fakes.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	hash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}

	var cfg config.Config
	cfg.Server.Env = "test"
	cfg.Server.PublicBaseURL = "https://reviews.example.com"
	cfg.Database.DSN = "sqlite://:memory:"
	cfg.Auth.SessionSecret = "session-secret-for-tests-0123456789"
	cfg.Auth.AdminEmail = AdminEmail
	cfg.Auth.AdminPasswordHash = hash
	cfg.Auth.SessionTTLHours = 8
	cfg.Auth.CookieName = "admin_token"
	cfg.Media.Provider = "cloudinary"
	cfg.Media.MaxBytes = 5 * 1024 * 1024
	cfg.Media.TimeoutSec = 5
	cfg.Catalog.TimeoutSec = 5
	cfg.Chat.TimeoutSec = 5
	cfg.Cron.Secret = CronSecret
	cfg.Telemetry.ServiceName = "reviewhub-test"
	return &cfg
}

// NewTestServer builds the router exactly as the binary does and serves it
// over a loopback listener. deps may be nil.
func NewTestServer(t *testing.T, deps *app.Dependencies) *TestServer {
	t.Helper()

	db := testdb.New(t)
	cfg := TestConfig(t)
	router := app.SetupRouter(cfg, db, deps)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := server.Client()
	client.Jar = jar

	return &TestServer{
		Server: server,
		DB:     db,
		Config: cfg,
		client: client,
	}
}

// LoginAdmin signs in and keeps the session cookie for later requests.
func (ts *TestServer) LoginAdmin(t *testing.T) {
	t.Helper()
	res, body := ts.SendRequest(t, http.MethodPost, "/api/admin/auth/login", map[string]string{
		"email":    AdminEmail,
		"password": AdminPassword,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin login failed: %d %s", res.StatusCode, body)
	}
}

// SendRequest sends body as JSON (when non-nil) with the session cookie, if any.
func (ts *TestServer) SendRequest(t *testing.T, method, path string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.Do(t, req)
}

// Do sends a prepared request through the session-aware client.
func (ts *TestServer) Do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	res, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return res, string(resBody)
}
