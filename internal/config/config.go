package config

import (
	"os"
	"strings"
	"time"
)

// DevHMACSecret signs operator tokens when AUTH_HMAC_SECRET is unset.
const DevHMACSecret = "supersecret-dev-key"

type Config struct {
	// Grading inputs
	SubmissionDir string // root searched for fof.mapper.*, fof.reducer.*, bucket.txt
	FixtureDir    string // simple.input/, simple.out, bucket6, bucket6_lex
	DatasetGlob   string // relative to FixtureDir unless absolute
	ArtifactDir   string // optional copy of fetched job output

	PipelineTimeout time.Duration
	FetchTimeout    time.Duration

	// Report
	ReportPath string
	ReportNote string

	// Persistence: none|sqlite|postgres
	DBDriver string
	DBDSN    string

	// Operator API
	HTTPAddr       string
	CORSOrigins    []string
	AdminUser      string
	AdminPassHash  string // bcrypt
	AuthHMACSecret string

	// LMS passback (LTI AGS)
	AGSTokenURL     string
	AGSClientID     string
	AGSClientSecret string
	AGSLineItemURL  string
	AGSUserID       string
}

func FromEnv() Config {
	return Config{
		SubmissionDir:   envOr("SUBMISSION_DIR", "."),
		FixtureDir:      envOr("FIXTURE_DIR", "."),
		DatasetGlob:     envOr("DATASET_GLOB", "simple.input/*"),
		ArtifactDir:     os.Getenv("ARTIFACT_DIR"),
		PipelineTimeout: envDuration("PIPELINE_TIMEOUT", 2*time.Minute),
		FetchTimeout:    envDuration("FETCH_TIMEOUT", 30*time.Second),

		ReportPath: envOr("REPORT_PATH", "out.json"),
		ReportNote: envOr("REPORT_NOTE", "this tests your code"),

		DBDriver: envOr("DB_DRIVER", "none"),
		DBDSN:    envOr("DB_DSN", ""),

		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  os.Getenv("ADMIN_PASS_HASH"),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", DevHMACSecret),

		AGSTokenURL:     os.Getenv("AGS_TOKEN_URL"),
		AGSClientID:     os.Getenv("AGS_CLIENT_ID"),
		AGSClientSecret: os.Getenv("AGS_CLIENT_SECRET"),
		AGSLineItemURL:  os.Getenv("AGS_LINEITEM_URL"),
		AGSUserID:       os.Getenv("AGS_USER_ID"),
	}
}

// PersistenceEnabled reports whether grade runs are stored.
func (c Config) PersistenceEnabled() bool {
	return c.DBDriver != "" && c.DBDriver != "none"
}

// PassbackEnabled reports whether scores are posted to the LMS.
func (c Config) PassbackEnabled() bool {
	return c.AGSLineItemURL != "" && c.AGSTokenURL != ""
}

// DevSecret reports whether operator tokens are signed with DevHMACSecret.
func (c Config) DevSecret() bool {
	return c.AuthHMACSecret == DevHMACSecret
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
