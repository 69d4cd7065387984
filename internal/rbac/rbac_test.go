package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_Has(t *testing.T) {
	c := NewChecker(map[string][]string{
		"ta":    {"runs:view"},
		"lead":  {"runs:*"},
		"admin": {"*"},
	})
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"ta", "runs:view", true},
		{"ta", "runs:sync", false},
		{"lead", "runs:sync", true},
		{"lead", "users:edit", false},
		{"admin", "anything", true},
		{"", "runs:view", false},
	}
	for _, tt := range tests {
		if got := c.Has(tt.role, tt.perm); got != tt.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require("runs:sync")(ok)

	for role, want := range map[string]int{"admin": http.StatusNoContent, "ta": http.StatusForbidden, "": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/runs/x/sync", nil)
		if role != "" {
			req = req.WithContext(WithRole(req.Context(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: status = %d, want %d", role, rec.Code, want)
		}
	}
}
