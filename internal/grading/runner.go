package grading

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// Runner runs testers one after another. A failing tester never stops the
// ones after it.
type Runner struct {
	Testers []Tester
	Log     *log.Logger
}

func NewRunner(l *log.Logger, testers ...Tester) *Runner {
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Runner{Testers: testers, Log: l}
}

// Deps are the collaborators of the default tester set.
type Deps struct {
	Shell   Shell
	Fetcher Fetcher
	Archive Archive // optional
	Dataset string
}

// NewDefaultRunner installs the stream and bucket testers.
func NewDefaultRunner(d Deps, opts ...Option) *Runner {
	cfg := newConfig(opts)
	bucket := NewBucketTester(d.Fetcher, BucketMaxScore, opts...)
	if d.Archive != nil {
		bucket.WithArchive(d.Archive)
	}
	return NewRunner(cfg.Log,
		NewStreamTester(d.Shell, d.Dataset, StreamMaxScore, opts...),
		bucket,
	)
}

func (r *Runner) Run(ctx context.Context) []GradeResult {
	out := make([]GradeResult, 0, len(r.Testers))
	for _, t := range r.Testers {
		out = append(out, r.runOne(ctx, t))
	}
	return out
}

func (r *Runner) runOne(ctx context.Context, t Tester) (res GradeResult) {
	defer func() {
		if p := recover(); p != nil {
			r.Log.Printf("GRADER ERROR: unexpected failure in %s: %v\n%s", t.Name(), p, debug.Stack())
			res = crashResult(t, fmt.Sprint(p), r.Log)
		}
	}()
	return t.Run(ctx)
}

// crashResult reports a tester that panicked: the board starts at max like
// any tester and loses all of it. The max is recovered from the tester when
// it exposes one.
func crashResult(t Tester, reason string, l *log.Logger) GradeResult {
	max := 0.0
	if m, ok := t.(interface{ MaxScore() float64 }); ok {
		max = m.MaxScore()
	}
	b := NewScoreBoard(t.Name(), 0, max, WithBoardLogger(l))
	b.Adjust(max, "Initializing at max pts.")
	b.Adjust(-max, "unknown but fatal failure (consider submitting regrade request!).", reason)
	return GradeResult{
		Name:      t.Name(),
		Score:     b.Score(),
		MaxScore:  max,
		Output:    b.Dump().Output,
		EnvErrors: []string{"tester crashed: " + reason},
	}
}
