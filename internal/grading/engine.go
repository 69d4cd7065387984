package grading

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// GradeResult is the outcome of one tester.
type GradeResult struct {
	Name      string   `json:"name,omitempty"`
	Score     float64  `json:"score"`
	MaxScore  float64  `json:"max_score"`
	Output    string   `json:"output"`
	EnvErrors []string `json:"env_errors,omitempty"` // grading environment problems, not the student's
}

// Tester grades one aspect of a submission. Implementations are StreamTester
// and BucketTester; the Runner picks them at composition time.
type Tester interface {
	Name() string
	Run(ctx context.Context) GradeResult
}

// Shell runs the submission pipeline.
type Shell interface {
	Run(ctx context.Context, command string) (string, error)
	Chmod(path string, mode os.FileMode) error
}

// Fixtures serves reference outputs provided by the grading environment.
type Fixtures interface {
	Get(key string) (io.ReadCloser, error)
}

// Fetcher retrieves remote job output by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Engine options

type Option func(*config)

type config struct {
	Locator  Locator
	Fixtures Fixtures
	Log      *log.Logger
	Note     string
}

func WithSubmission(root string) Option { return func(c *config) { c.Locator = Locator{Root: root} } }
func WithFixtures(f Fixtures) Option    { return func(c *config) { c.Fixtures = f } }
func WithLogger(l *log.Logger) Option   { return func(c *config) { c.Log = l } }
func WithNote(n string) Option          { return func(c *config) { c.Note = n } }

func newConfig(opts []Option) config {
	cfg := config{
		Locator: Locator{Root: "."},
		Log:     log.New(os.Stderr, "", log.LstdFlags),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// base carries what every tester shares: a board that starts at max and the
// environment error list.
type base struct {
	config
	name      string
	header    string
	board     *ScoreBoard
	envErrors []string
}

func newBase(name, header string, max float64, opts []Option) base {
	cfg := newConfig(opts)
	b := base{
		config: cfg,
		name:   name,
		header: header,
		board:  NewScoreBoard(name, 0, max, WithBoardLogger(cfg.Log)),
	}
	b.board.Adjust(max, "Initializing at max pts.")
	return b
}

func (b *base) Name() string       { return b.name }
func (b *base) MaxScore() float64 { return b.board.Max() }

// envError reports a problem with the grading environment on the operator
// channel. The score is left alone.
func (b *base) envError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.Log.Printf("GRADER ERROR: %s", msg)
	b.envErrors = append(b.envErrors, msg)
}

func (b *base) readFixture(key string) (string, error) {
	if b.Fixtures == nil {
		return "", fmt.Errorf("%w: %s (no fixture store)", ErrFixtureMissing, key)
	}
	rc, err := b.Fixtures.Get(key)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFixtureMissing, key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFixtureMissing, key, err)
	}
	return string(data), nil
}

func (b *base) result() GradeResult {
	snap := b.board.Dump()
	out := b.header
	if exp := b.board.Explanation(); len(exp) > 0 {
		out += "\n" + strings.Join(exp, "\n")
	}
	if b.Note != "" {
		out += "\nnote: " + b.Note
	}
	return GradeResult{
		Name:      b.name,
		Score:     snap.Score,
		MaxScore:  b.board.Max(),
		Output:    out,
		EnvErrors: append([]string(nil), b.envErrors...),
	}
}
