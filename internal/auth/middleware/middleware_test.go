package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/fofgrade/internal/rbac"
)

func account(t *testing.T, user, pass, role string) Account {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return Account{Username: user, PassHash: string(h), Role: role}
}

func login(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("test-secret")
	h := LoginHandler(a, account(t, "admin", "hunter2", "admin"), Account{Username: "locked", Role: "ta"})

	rec := login(h, `{"username":"admin","password":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(out.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sub != "admin" || c.Role != "admin" {
		t.Fatalf("claims = %+v", c)
	}

	for _, body := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"locked","password":""}`,
		`{"username":"ghost","password":"x"}`,
	} {
		if rec := login(h, body); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", body, rec.Code)
		}
	}
	if rec := login(h, `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d", rec.Code)
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	var sub, role string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
	}))

	tok, err := a.IssueJWT("ta1", "ta")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sub != "ta1" || role != "ta" {
		t.Fatalf("status %d sub %q role %q", rec.Code, sub, role)
	}

	other, _ := NewAuthService("other-secret").IssueJWT("ta1", "admin")
	for _, hdr := range []string{"", "Bearer garbage", "Bearer " + other} {
		req := httptest.NewRequest(http.MethodGet, "/runs", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", hdr, rec.Code)
		}
	}
}
