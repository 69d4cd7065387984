package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	auth "github.com/mind-engage/fofgrade/internal/auth/middleware"
	"github.com/mind-engage/fofgrade/internal/report"
)

type fakeRuns struct {
	runs     map[string]report.Report
	lastOpts report.ListOpts
}

func (f *fakeRuns) GetRun(_ context.Context, id string) (report.Report, error) {
	r, ok := f.runs[id]
	if !ok {
		return report.Report{}, report.ErrRunNotFound
	}
	return r, nil
}

func (f *fakeRuns) ListRuns(_ context.Context, opts report.ListOpts) ([]report.RunSummary, error) {
	f.lastOpts = opts
	out := []report.RunSummary{}
	for _, r := range f.runs {
		out = append(out, report.RunSummary{ID: r.ID, Submission: r.Submission, Total: r.Total, MaxTotal: r.MaxTotal})
	}
	return out, nil
}

func (f *fakeRuns) SyncStatus(_ context.Context, runID string) (string, int, error) {
	if runID == "run-1" {
		return "failed", 2, nil
	}
	return "", 0, nil
}

type fakeSyncer struct {
	calls []string
	err   error
}

func (f *fakeSyncer) SyncRun(_ context.Context, runID, userID string) error {
	f.calls = append(f.calls, runID+"|"+userID)
	return f.err
}

func newTestRouter(t *testing.T, s RunSyncer) (http.Handler, *auth.AuthService, *fakeRuns) {
	t.Helper()
	runs := &fakeRuns{runs: map[string]report.Report{
		"run-1": {ID: "run-1", Submission: "alice", Total: 19.5, MaxTotal: 25},
	}}
	a := auth.NewAuthService("test-secret")
	return NewRouter(RouterDeps{Runs: runs, SyncStatus: runs, Syncer: s, Auth: a}), a, runs
}

func do(t *testing.T, h http.Handler, a *auth.AuthService, role, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		tok, err := a.IssueJWT("op", role)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRuns_ListAndGet(t *testing.T) {
	h, a, runs := newTestRouter(t, nil)

	rec := do(t, h, a, "ta", http.MethodGet, "/runs?submission=alice&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if runs.lastOpts.Submission != "alice" || runs.lastOpts.Limit != 5 {
		t.Fatalf("list opts = %+v", runs.lastOpts)
	}
	var list []report.RunSummary
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("list = %v (%v)", list, err)
	}

	rec = do(t, h, a, "ta", http.MethodGet, "/runs/run-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got report.Report
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil || got.Total != 19.5 {
		t.Fatalf("get = %+v (%v)", got, err)
	}

	if rec := do(t, h, a, "ta", http.MethodGet, "/runs/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d", rec.Code)
	}
	if rec := do(t, h, a, "", http.MethodGet, "/runs", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}
}

func TestSync(t *testing.T) {
	s := &fakeSyncer{}
	h, a, _ := newTestRouter(t, s)

	if rec := do(t, h, a, "ta", http.MethodPost, "/runs/run-1/sync", `{"user_id":"sub-1"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("ta sync status = %d", rec.Code)
	}
	rec := do(t, h, a, "admin", http.MethodPost, "/runs/run-1/sync", `{"user_id":"sub-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin sync status = %d: %s", rec.Code, rec.Body)
	}
	if len(s.calls) != 1 || s.calls[0] != "run-1|sub-1" {
		t.Fatalf("sync calls = %v", s.calls)
	}
	if rec := do(t, h, a, "admin", http.MethodPost, "/runs/run-1/sync", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user status = %d", rec.Code)
	}

	s.err = errors.New("post score: 500")
	if rec := do(t, h, a, "admin", http.MethodPost, "/runs/run-1/sync", `{"user_id":"sub-1"}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("upstream failure status = %d", rec.Code)
	}
	s.err = report.ErrRunNotFound
	if rec := do(t, h, a, "admin", http.MethodPost, "/runs/nope/sync", `{"user_id":"sub-1"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d", rec.Code)
	}
}

func TestSync_NotConfigured(t *testing.T) {
	h, a, _ := newTestRouter(t, nil)
	rec := do(t, h, a, "admin", http.MethodPost, "/runs/run-1/sync", `{"user_id":"sub-1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h, a, _ := newTestRouter(t, nil)
	if rec := do(t, h, a, "", http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSyncStatus(t *testing.T) {
	h, a, _ := newTestRouter(t, nil)

	rec := do(t, h, a, "ta", http.MethodGet, "/runs/run-1/sync", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Status  string `json:"status"`
		Retries int    `json:"retries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "failed" || out.Retries != 2 {
		t.Fatalf("sync status = %+v", out)
	}

	rec = do(t, h, a, "ta", http.MethodGet, "/runs/other/sync", "")
	if !strings.Contains(rec.Body.String(), `"never"`) {
		t.Fatalf("body = %s", rec.Body)
	}
}
