package grading

import (
	"fmt"
	"log"
	"strings"
)

// ScoreBoard accumulates the score of a single tester between a lower and an
// upper bound. Every adjustment is recorded in the explanation, including the
// ones whose effect gets clamped.
type ScoreBoard struct {
	name        string
	lower       float64
	upper       float64
	strictLower bool
	strictUpper bool
	score       float64
	explanation []string
	log         *log.Logger
}

// BoardOption configures a ScoreBoard.
type BoardOption func(*ScoreBoard)

// WithLooseLower lets the score fall below the lower bound (still logged).
func WithLooseLower() BoardOption { return func(b *ScoreBoard) { b.strictLower = false } }

// WithLooseUpper lets the score rise above the upper bound (still logged).
func WithLooseUpper() BoardOption { return func(b *ScoreBoard) { b.strictUpper = false } }

// WithBoardLogger routes bound violations to l instead of the default logger.
func WithBoardLogger(l *log.Logger) BoardOption { return func(b *ScoreBoard) { b.log = l } }

// NewScoreBoard returns a board starting at zero with both bounds strict.
func NewScoreBoard(name string, lower, upper float64, opts ...BoardOption) *ScoreBoard {
	b := &ScoreBoard{
		name:        name,
		lower:       lower,
		upper:       upper,
		strictLower: true,
		strictUpper: true,
		log:         log.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Adjust applies delta and records reason (and comment, if any).
func (b *ScoreBoard) Adjust(delta float64, reason string, comment ...string) {
	b.score += delta
	if b.score < b.lower {
		b.log.Printf("scoreboard: %s underflow %g#%g; reason: %s", b.name, b.lower, b.score, reason)
		if b.strictLower {
			b.score = b.lower
		}
	}
	if b.score > b.upper {
		b.log.Printf("scoreboard: %s overflow %g#%g; reason: %s", b.name, b.upper, b.score, reason)
		if b.strictUpper {
			b.score = b.upper
		}
	}
	b.explanation = append(b.explanation, fmt.Sprintf("(%+.2f) %s", delta, reason))
	for _, c := range comment {
		if c != "" {
			b.explanation = append(b.explanation, "comment: "+c)
		}
	}
}

func (b *ScoreBoard) Score() float64 { return b.score }
func (b *ScoreBoard) Max() float64   { return b.upper }

// Explanation returns a copy of the adjustment log.
func (b *ScoreBoard) Explanation() []string {
	out := make([]string, len(b.explanation))
	copy(out, b.explanation)
	return out
}

// Snapshot is the read-only view returned by Dump.
type Snapshot struct {
	Score  float64 `json:"score"`
	Output string  `json:"output"`
}

// Dump returns the current score and the rendered explanation.
func (b *ScoreBoard) Dump() Snapshot {
	var sb strings.Builder
	sb.WriteString(b.name)
	for _, line := range b.explanation {
		sb.WriteByte('\n')
		sb.WriteString(line)
	}
	return Snapshot{Score: b.score, Output: sb.String()}
}
