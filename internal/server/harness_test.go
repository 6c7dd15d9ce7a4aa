package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/database/dbtest"
	"taskmanager-backend/internal/server"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
)

// Seeded accounts, in creation order.
const (
	adminEmail   = "admin@company.com"
	johnEmail    = "manager@company.com" // id 2, New York
	sarahEmail   = "sarah@company.com"   // id 3, Los Angeles
	michaelEmail = "michael@company.com" // id 4, Chicago
)

type harness struct {
	t   *testing.T
	app *fiber.App
}

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:    "sqlite",
		JWTSecret:   strings.Repeat("k", 32),
		JWTTTL:      time.Hour,
		CORSOrigins: "*",
	}
}

// newHarness serves a fresh database. With seed the demo data is loaded.
func newHarness(t *testing.T, seed bool) *harness {
	t.Helper()
	db := dbtest.New(t)
	if seed {
		if err := database.SeedDemoData(db); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return &harness{t: t, app: server.New(testConfig())}
}

func (h *harness) do(method, path, token string, body any) (int, []byte) {
	h.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.send(req)
}

func (h *harness) send(req *http.Request) (int, []byte) {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	if err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

// must performs the request and decodes the body into out, failing unless
// the status is want.
func (h *harness) must(want int, method, path, token string, body, out any) {
	h.t.Helper()
	status, raw := h.do(method, path, token, body)
	if status != want {
		h.t.Fatalf("%s %s: status %d, want %d: %s", method, path, status, want, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			h.t.Fatalf("%s %s: decode: %v: %s", method, path, err, raw)
		}
	}
}

func (h *harness) login(email string) string {
	h.t.Helper()
	var res api.AuthResponse
	h.must(http.StatusOK, "POST", "/api/login", "", api.LoginRequest{Email: email, Password: database.DemoPassword}, &res)
	return res.Token
}

func decodeError(t *testing.T, raw []byte) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode error body: %v: %s", err, raw)
	}
	return body
}

func ptr[T any](v T) *T { return &v }
