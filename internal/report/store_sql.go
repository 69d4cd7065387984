package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

var ErrRunNotFound = errors.New("grade run not found")

type ListOpts struct {
	Submission string
	Limit      int
	Offset     int
}

// RunSummary is a listing row; the full report is fetched with GetRun.
type RunSummary struct {
	ID         string    `json:"id"`
	Submission string    `json:"submission"`
	Total      float64   `json:"total"`
	MaxTotal   float64   `json:"max_total"`
	CreatedAt  time.Time `json:"created_at"`
	SyncStatus string    `json:"sync_status,omitempty"`
}

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// PutRun stores the report and one row per tester result.
func (s *SQLStore) PutRun(ctx context.Context, r Report) error {
	rj, err := json.Marshal(r)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO grade_runs (id,submission,output,total,max_total,report_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.Submission, r.Output, r.Total, r.MaxTotal, string(rj), r.CreatedAt.Unix()); err != nil {
		return err
	}
	for i, t := range r.Tests {
		if _, err := tx.ExecContext(ctx, `INSERT INTO grade_results (run_id,position,name,score,max_score,output,env_errors)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			r.ID, i, t.Name, t.Score, t.MaxScore, t.Output, len(t.EnvErrors)); err != nil {
			return err
		}
	}
	ev, _ := json.Marshal(map[string]any{"total": r.Total, "max_total": r.MaxTotal})
	if _, err := tx.ExecContext(ctx, `INSERT INTO event_log (typ,key,data,created_at) VALUES ($1,$2,$3,$4)`,
		"RunGraded", r.ID, string(ev), time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) GetRun(ctx context.Context, id string) (Report, error) {
	var rj string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM grade_runs WHERE id=$1`, id).Scan(&rj)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrRunNotFound
	}
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := json.Unmarshal([]byte(rj), &r); err != nil {
		return Report{}, err
	}
	return r, nil
}

// ListRuns returns runs newest first.
func (s *SQLStore) ListRuns(ctx context.Context, opts ListOpts) ([]RunSummary, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.submission, r.total, r.max_total, r.created_at, COALESCE(g.status,'')
		  FROM grade_runs r
		  LEFT JOIN grade_sync_status g ON g.run_id = r.id
		 WHERE ($1 = '' OR r.submission = $1)
		 ORDER BY r.created_at DESC, r.id
		 LIMIT $2 OFFSET $3`,
		opts.Submission, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		var rs RunSummary
		var created int64
		if err := rows.Scan(&rs.ID, &rs.Submission, &rs.Total, &rs.MaxTotal, &created, &rs.SyncStatus); err != nil {
			return nil, err
		}
		rs.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (s *SQLStore) AppendEvent(ctx context.Context, typ, key string, data any) error {
	dj, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO event_log (typ,key,data,created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(dj), time.Now().Unix())
	return err
}

func (s *SQLStore) MarkSyncPending(runID string) error {
	_, err := s.db.Exec(`
		INSERT INTO grade_sync_status (run_id, status, retries, updated_at)
		VALUES ($1,'pending',0,$2)
		ON CONFLICT (run_id)
		DO UPDATE SET status='pending', updated_at=EXCLUDED.updated_at`,
		runID, time.Now().Unix())
	return err
}

func (s *SQLStore) MarkSyncOK(runID string) error {
	_, err := s.db.Exec(`
		UPDATE grade_sync_status
		   SET status='ok', last_error=NULL, updated_at=$2
		 WHERE run_id=$1`, runID, time.Now().Unix())
	return err
}

func (s *SQLStore) MarkSyncFailed(runID, lastErr string) error {
	_, err := s.db.Exec(`
		INSERT INTO grade_sync_status (run_id, status, retries, last_error, updated_at)
		VALUES ($1,'failed',1,$2,$3)
		ON CONFLICT (run_id)
		DO UPDATE SET
			status='failed',
			retries=grade_sync_status.retries+1,
			last_error=EXCLUDED.last_error,
			updated_at=EXCLUDED.updated_at`,
		runID, lastErr, time.Now().Unix())
	return err
}

// SyncStatus returns the passback status and retry count of a run.
func (s *SQLStore) SyncStatus(ctx context.Context, runID string) (string, int, error) {
	var status string
	var retries int
	err := s.db.QueryRowContext(ctx, `SELECT status, retries FROM grade_sync_status WHERE run_id=$1`, runID).
		Scan(&status, &retries)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	return status, retries, err
}
