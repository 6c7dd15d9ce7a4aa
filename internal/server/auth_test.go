package server_test

import (
	"bytes"
	"net/http"
	"testing"

	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"
)

func TestLoginReturnsTokenAndUser(t *testing.T) {
	h := newHarness(t, true)

	var res api.AuthResponse
	h.must(http.StatusOK, "POST", "/api/login", "", api.LoginRequest{Email: "  Manager@Company.com ", Password: "password"}, &res)

	if res.Token == "" || res.TokenType != "Bearer" {
		t.Fatalf("token=%q type=%q", res.Token, res.TokenType)
	}
	if res.User.Email != johnEmail || res.User.Role != access.RoleManager {
		t.Fatalf("user = %+v", res.User)
	}
	if res.User.Branch == nil || res.User.Branch.Name != "New York" {
		t.Fatalf("branch not embedded: %+v", res.User.Branch)
	}
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	h := newHarness(t, true)

	s1, unknown := h.do("POST", "/api/login", "", api.LoginRequest{Email: "nobody@company.com", Password: "password"})
	s2, wrong := h.do("POST", "/api/login", "", api.LoginRequest{Email: adminEmail, Password: "wrong-password"})

	if s1 != http.StatusUnauthorized || s2 != http.StatusUnauthorized {
		t.Fatalf("statuses %d and %d, want 401", s1, s2)
	}
	if !bytes.Equal(unknown, wrong) {
		t.Fatalf("bodies differ:\n%s\n%s", unknown, wrong)
	}
	if msg := decodeError(t, wrong).Message; msg != "Invalid credentials" {
		t.Fatalf("message = %q", msg)
	}
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t, true)

	status, raw := h.do("POST", "/api/login", "", map[string]string{})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", status, raw)
	}
	body := decodeError(t, raw)
	for _, f := range []string{"email", "password"} {
		if len(body.Errors[f]) == 0 {
			t.Errorf("missing error for %s: %s", f, raw)
		}
	}
}

func TestProtectedRoutesNeedAValidToken(t *testing.T) {
	h := newHarness(t, true)

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := h.do("GET", "/api/user", tc.token, nil)
			if status != http.StatusUnauthorized {
				t.Fatalf("status %d: %s", status, raw)
			}
			if kind := decodeError(t, raw).Error; kind != "unauthenticated" {
				t.Fatalf("kind = %q", kind)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	h := newHarness(t, true)
	token := h.login(sarahEmail)

	var u api.User
	h.must(http.StatusOK, "GET", "/api/user", token, nil, &u)
	if u.Email != sarahEmail || u.Branch == nil || u.Branch.Name != "Los Angeles" {
		t.Fatalf("user = %+v", u)
	}
}

func TestLogoutRevokesTheToken(t *testing.T) {
	h := newHarness(t, true)
	token := h.login(adminEmail)
	other := h.login(adminEmail)

	var msg api.Message
	h.must(http.StatusOK, "POST", "/api/logout", token, nil, &msg)
	if msg.Message != "Logged out successfully" {
		t.Fatalf("message = %q", msg.Message)
	}

	status, raw := h.do("GET", "/api/user", token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("revoked token: status %d: %s", status, raw)
	}

	// Other tokens of the same user keep working.
	h.must(http.StatusOK, "GET", "/api/user", other, nil, nil)
}

func TestRegisterBootstrapsAdminThenManagers(t *testing.T) {
	h := newHarness(t, false)

	var first api.AuthResponse
	h.must(http.StatusCreated, "POST", "/api/register", "", api.RegisterRequest{
		Name: "Owner", Email: "owner@company.com", Password: "secret-pass",
	}, &first)
	if first.User.Role != access.RoleAdmin || first.User.BranchID != nil {
		t.Fatalf("first user = %+v", first.User)
	}

	// Later accounts are managers and need a branch.
	status, raw := h.do("POST", "/api/register", "", api.RegisterRequest{
		Name: "Second", Email: "second@company.com", Password: "secret-pass",
	})
	if status != http.StatusUnprocessableEntity || len(decodeError(t, raw).Errors["branch_id"]) == 0 {
		t.Fatalf("status %d: %s", status, raw)
	}

	var branch api.Branch
	h.must(http.StatusCreated, "POST", "/api/branches", first.Token, api.CreateBranchRequest{
		Name: "Chicago", Address: "789 Michigan Ave", Phone: "+1 312 555 0300",
	}, &branch)

	var second api.AuthResponse
	h.must(http.StatusCreated, "POST", "/api/register", "", api.RegisterRequest{
		Name: "Second", Email: "second@company.com", Password: "secret-pass", BranchID: &branch.ID,
	}, &second)
	if second.User.Role != access.RoleManager || second.User.BranchID == nil || *second.User.BranchID != branch.ID {
		t.Fatalf("second user = %+v", second.User)
	}

	status, raw = h.do("POST", "/api/register", "", api.RegisterRequest{
		Name: "Dup", Email: "SECOND@company.com", Password: "secret-pass", BranchID: &branch.ID,
	})
	if status != http.StatusConflict {
		t.Fatalf("duplicate email: status %d: %s", status, raw)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)
	status, raw := h.do("GET", "/api/health", "", nil)
	if status != http.StatusOK || string(raw) != "ok" {
		t.Fatalf("status %d: %s", status, raw)
	}
}
