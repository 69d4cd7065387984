package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/fofgrade/internal/grading"
)

// DefaultOutput is the top level message of every report.
const DefaultOutput = "this tests your code"

// Report is the artifact of one grading run. The output and tests keys are
// what the autograder front end reads; the rest is metadata.
type Report struct {
	ID         string                `json:"id,omitempty"`
	Output     string                `json:"output"`
	Tests      []grading.GradeResult `json:"tests"`
	Total      float64               `json:"total"`
	MaxTotal   float64               `json:"max_total"`
	Submission string                `json:"submission,omitempty"`
	CreatedAt  time.Time             `json:"created_at,omitempty"`
}

// New assembles a report with a fresh run ID.
func New(output, submission string, tests []grading.GradeResult, now time.Time) Report {
	if output == "" {
		output = DefaultOutput
	}
	r := Report{
		ID:         uuid.NewString(),
		Output:     output,
		Tests:      tests,
		Submission: submission,
		CreatedAt:  now.UTC(),
	}
	for _, t := range tests {
		r.Total += t.Score
		r.MaxTotal += t.MaxScore
	}
	return r
}

// HasEnvErrors reports whether any tester hit a grading environment problem.
func (r Report) HasEnvErrors() bool {
	for _, t := range r.Tests {
		if len(t.EnvErrors) > 0 {
			return true
		}
	}
	return false
}

// Encode writes r as JSON; pretty output uses a four space indent.
func (r Report) Encode(w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(r)
}

// WriteFile persists the compact form of r at path.
func (r Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f, false); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
