package grading

import (
	"context"
	"strings"
	"testing"
)

type stubTester struct {
	name string
	res  GradeResult
	boom bool
}

func (s stubTester) Name() string      { return s.name }
func (s stubTester) MaxScore() float64 { return s.res.MaxScore }
func (s stubTester) Run(context.Context) GradeResult {
	if s.boom {
		panic("index out of range")
	}
	return s.res
}

func TestRunner_CrashDoesNotStopOthers(t *testing.T) {
	r := NewRunner(quiet,
		stubTester{name: "first", res: GradeResult{MaxScore: 10}, boom: true},
		stubTester{name: "second", res: GradeResult{Name: "second", Score: 15, MaxScore: 15}},
	)

	got := r.Run(context.Background())
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].Score != 0 || got[0].MaxScore != 10 {
		t.Fatalf("crashed tester: %+v", got[0])
	}
	if len(got[0].EnvErrors) != 1 || !strings.Contains(got[0].EnvErrors[0], "index out of range") {
		t.Fatalf("crash not reported: %q", got[0].EnvErrors)
	}
	if !strings.Contains(got[0].Output, "(+10.00) Initializing at max pts.\n(-10.00) unknown but fatal failure") {
		t.Fatalf("crash explanation = %q", got[0].Output)
	}
	if got[1].Score != 15 {
		t.Fatalf("second tester: %+v", got[1])
	}
}

func TestNewDefaultRunner_Order(t *testing.T) {
	dir := t.TempDir()
	r := NewDefaultRunner(Deps{Shell: &fakeShell{}, Fetcher: &fakeFetcher{}},
		WithSubmission(dir), WithFixtures(mapFixtures{}), WithLogger(quiet))

	res := r.Run(context.Background())
	if len(res) != 2 {
		t.Fatalf("got %d results", len(res))
	}
	if res[0].MaxScore != StreamMaxScore || res[1].MaxScore != BucketMaxScore {
		t.Fatalf("unexpected max scores %v, %v", res[0].MaxScore, res[1].MaxScore)
	}
	if res[1].Score != 10 {
		t.Fatalf("bucket without descriptor: %v", res[1].Score)
	}
}
