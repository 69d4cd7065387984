package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	api "github.com/mind-engage/fofgrade/internal/api/http"
	auth "github.com/mind-engage/fofgrade/internal/auth/middleware"
	"github.com/mind-engage/fofgrade/internal/config"
	"github.com/mind-engage/fofgrade/internal/db"
	"github.com/mind-engage/fofgrade/internal/grading"
	"github.com/mind-engage/fofgrade/internal/grading/shell"
	"github.com/mind-engage/fofgrade/internal/report"
	"github.com/mind-engage/fofgrade/internal/storage"
	"github.com/mind-engage/fofgrade/pkg/gradebook"
	"github.com/mind-engage/fofgrade/pkg/gradebook/agshttp"
)

func main() {
	cfg := config.FromEnv()

	cmd := "grade"
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "grade" || args[0] == "serve") {
		cmd, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [grade|serve] [flags]\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.SubmissionDir, "submission", cfg.SubmissionDir, "submission root")
	fs.StringVar(&cfg.FixtureDir, "fixtures", cfg.FixtureDir, "directory with simple.input/, simple.out, bucket6, bucket6_lex")
	fs.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "where the JSON report is written")
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address for serve")
	_ = fs.Parse(args)

	switch cmd {
	case "serve":
		serve(cfg)
	default:
		if err := grade(cfg); err != nil {
			log.Fatalf("grade: %v", err)
		}
	}
}

func grade(cfg config.Config) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	fixtures, err := storage.OpenFSStore(cfg.FixtureDir)
	if err != nil {
		// still grade: every reference read turns into an environment error
		logger.Printf("GRADER ERROR: fixture dir: %v", err)
	}

	dataset := cfg.DatasetGlob
	if !filepath.IsAbs(dataset) {
		if abs, err := filepath.Abs(filepath.Join(cfg.FixtureDir, dataset)); err == nil {
			dataset = abs
		}
	}

	sh := shell.NewRunner(cfg.SubmissionDir)
	sh.Timeout = cfg.PipelineTimeout
	deps := grading.Deps{
		Shell:   sh,
		Fetcher: storage.NewHTTPFetcher(cfg.FetchTimeout),
		Dataset: dataset,
	}
	if cfg.ArtifactDir != "" {
		if a, err := storage.NewFSStore(cfg.ArtifactDir); err == nil {
			deps.Archive = a
		} else {
			logger.Printf("artifact dir: %v", err)
		}
	}
	opts := []grading.Option{grading.WithSubmission(cfg.SubmissionDir), grading.WithLogger(logger)}
	if fixtures != nil {
		opts = append(opts, grading.WithFixtures(fixtures))
	}

	runner := grading.NewDefaultRunner(deps, opts...)
	results := runner.Run(context.Background())
	rep := report.New(cfg.ReportNote, cfg.SubmissionDir, results, time.Now())

	if err := rep.Encode(os.Stdout, true); err != nil {
		logger.Printf("print report: %v", err)
	}
	if err := rep.WriteFile(cfg.ReportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.PersistenceEnabled() {
		persist(cfg, rep, logger)
	}
	return nil
}

// persist stores the run and, when configured, posts the score to the LMS.
// Failures here are logged and never change the report.
func persist(cfg config.Config, rep report.Report, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Printf("db open failed: %v", err)
		return
	}
	defer dbh.Close()
	store := report.NewSQLStore(dbh, cfg.DBDriver)
	if err := store.PutRun(ctx, rep); err != nil {
		logger.Printf("store run %s: %v", rep.ID, err)
		return
	}
	logger.Printf("stored run %s (%.2f/%.2f)", rep.ID, rep.Total, rep.MaxTotal)

	if syncer := newSyncer(cfg, store); syncer != nil && cfg.AGSUserID != "" {
		ev := map[string]any{"user_id": cfg.AGSUserID}
		typ := "ScorePosted"
		if err := syncer.SyncRun(ctx, rep.ID, cfg.AGSUserID); err != nil {
			logger.Printf("lms sync %s: %v", rep.ID, err)
			typ, ev["error"] = "ScoreSyncFailed", err.Error()
		}
		if err := store.AppendEvent(ctx, typ, rep.ID, ev); err != nil {
			logger.Printf("event log: %v", err)
		}
	}
}

func newSyncer(cfg config.Config, store *report.SQLStore) *gradebook.Syncer {
	if !cfg.PassbackEnabled() {
		return nil
	}
	ags := agshttp.New(agshttp.Config{
		TokenURL:     cfg.AGSTokenURL,
		ClientID:     cfg.AGSClientID,
		ClientSecret: cfg.AGSClientSecret,
		Timeout:      cfg.FetchTimeout,
	})
	return gradebook.New(report.GradebookStore{SQLStore: store}, ags, cfg.AGSLineItemURL, time.Now)
}

func serve(cfg config.Config) {
	if !cfg.PersistenceEnabled() {
		cfg.DBDriver = string(db.DriverSQLite)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := report.NewSQLStore(dbh, cfg.DBDriver)

	deps := api.RouterDeps{
		Runs:        store,
		SyncStatus:  store,
		Auth:        auth.NewAuthService(cfg.AuthHMACSecret),
		Accounts:    []auth.Account{{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash, Role: "admin"}},
		CORSOrigins: cfg.CORSOrigins,
	}
	if s := newSyncer(cfg, store); s != nil {
		deps.Syncer = s
	}
	if cfg.AdminPassHash == "" {
		log.Printf("ADMIN_PASS_HASH not set; login is disabled")
	}
	if cfg.DevSecret() {
		log.Printf("WARNING: AUTH_HMAC_SECRET not set; operator tokens are signed with the development secret")
	}

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, api.NewRouter(deps)))
}
