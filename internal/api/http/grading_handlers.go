package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/fofgrade/internal/report"
)

// RunSyncer pushes a stored run's score to the LMS.
type RunSyncer interface {
	SyncRun(ctx context.Context, runID, userID string) error
}

type syncRunReq struct {
	UserID string `json:"user_id"` // LMS platform user
}

// POST /runs/{runID}/sync
func SyncRunHandler(s RunSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := strings.TrimSpace(chi.URLParam(r, "runID"))
		if runID == "" {
			http.Error(w, "runID required", http.StatusBadRequest)
			return
		}
		if s == nil {
			http.Error(w, "lms passback not configured", http.StatusServiceUnavailable)
			return
		}
		var req syncRunReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		if err := s.SyncRun(r.Context(), runID, req.UserID); err != nil {
			if errors.Is(err, report.ErrRunNotFound) {
				http.Error(w, "run not found", http.StatusNotFound)
				return
			}
			log.Printf("sync run %s: %v", runID, err)
			http.Error(w, "sync: "+err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"run_id": runID, "status": "ok"})
	}
}
