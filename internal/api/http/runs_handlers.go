package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/fofgrade/internal/report"
)

// RunStore is what the run handlers read from.
type RunStore interface {
	GetRun(ctx context.Context, id string) (report.Report, error)
	ListRuns(ctx context.Context, opts report.ListOpts) ([]report.RunSummary, error)
}

// GET /runs?submission=...&limit=50&offset=0
func ListRunsHandler(store RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.ListRuns(r.Context(), report.ListOpts{
			Submission: strings.TrimSpace(q.Get("submission")),
			Limit:      parseIntDefault(q.Get("limit"), 50),
			Offset:     parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, "list runs: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /runs/{runID}
func GetRunHandler(store RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := strings.TrimSpace(chi.URLParam(r, "runID"))
		if runID == "" {
			http.Error(w, "runID required", http.StatusBadRequest)
			return
		}
		rep, err := store.GetRun(r.Context(), runID)
		if errors.Is(err, report.ErrRunNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "get run: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// SyncStatusStore reports LMS passback state per run.
type SyncStatusStore interface {
	SyncStatus(ctx context.Context, runID string) (status string, retries int, err error)
}

// GET /runs/{runID}/sync
func SyncStatusHandler(store SyncStatusStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := strings.TrimSpace(chi.URLParam(r, "runID"))
		status, retries, err := store.SyncStatus(r.Context(), runID)
		if err != nil {
			http.Error(w, "sync status: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if status == "" {
			status = "never"
		}
		writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "status": status, "retries": retries})
	}
}

func parseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
