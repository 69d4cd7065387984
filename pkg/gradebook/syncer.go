package gradebook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Clock func() time.Time

type Syncer struct {
	Store       Store
	AGS         AGSClient
	LineItemURL string
	Now         Clock
}

func New(store Store, ags AGSClient, lineItemURL string, now Clock) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{Store: store, AGS: ags, LineItemURL: lineItemURL, Now: now}
}

// SyncRun posts the run's total for userID and records the outcome.
func (s *Syncer) SyncRun(ctx context.Context, runID, userID string) error {
	if userID == "" {
		return errors.New("no platform user id")
	}
	if s.LineItemURL == "" {
		return errors.New("missing line item url")
	}
	run, err := s.Store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	_ = s.Store.MarkSyncPending(run.ID)

	sc := Score{
		UserID:           userID,
		ScoreGiven:       run.Total,
		ScoreMaximum:     run.MaxTotal,
		ActivityProgress: "Completed",
		GradingProgress:  "FullyGraded",
		Timestamp:        s.Now(),
	}
	if run.NeedsReview {
		sc.GradingProgress = "PendingManual"
		sc.Comment = "grading environment error; score pending review"
	}
	if err := s.AGS.PostScore(ctx, s.LineItemURL, sc); err != nil {
		_ = s.Store.MarkSyncFailed(run.ID, err.Error())
		return err
	}
	return s.Store.MarkSyncOK(run.ID)
}
