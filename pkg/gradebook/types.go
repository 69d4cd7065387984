// Package gradebook posts grading run scores to an LMS line item (LTI AGS).
package gradebook

import (
	"context"
	"time"
)

// Run is the part of a grading run that the LMS sees.
type Run struct {
	ID          string
	Total       float64
	MaxTotal    float64
	NeedsReview bool // environment errors; a human has to confirm the score
}

// Store: implement this in your app, or use report.GradebookStore
type Store interface {
	GetRun(ctx context.Context, id string) (Run, error)

	MarkSyncPending(runID string) error
	MarkSyncOK(runID string) error
	MarkSyncFailed(runID, lastErr string) error
}

type Score struct {
	UserID, ActivityProgress, GradingProgress string
	ScoreGiven, ScoreMaximum                  float64
	Comment                                   string
	Timestamp                                 time.Time
}

type AGSClient interface {
	PostScore(ctx context.Context, lineItemURL string, s Score) error
}
