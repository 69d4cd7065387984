package grading

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mind-engage/fofgrade/internal/storage"
)

const (
	BucketMaxScore   = 15.0
	BucketDescriptor = "bucket.txt"

	// partition names written by the two job runners we see in practice
	PartitionHadoop = "part-r-00006"
	PartitionSpark  = "part-00006"

	BucketReferenceNumeric = "bucket6"
	BucketReferenceLex     = "bucket6_lex"

	maxBucketDiffLines = 20
)

// Archive keeps a copy of fetched job output for manual regrades.
type Archive interface {
	Put(key string, r io.Reader) (string, error)
}

// BucketTester fetches the cluster job output named in bucket.txt and
// compares it with the numeric and the lexicographic references.
type BucketTester struct {
	base
	fetch   Fetcher
	archive Archive
}

func NewBucketTester(f Fetcher, max float64, opts ...Option) *BucketTester {
	return &BucketTester{
		base:  newBase("bucket tester", "Bucket Tester", max, opts),
		fetch: f,
	}
}

// WithArchive stores every fetched partition under bucket/<partition>.
func (t *BucketTester) WithArchive(a Archive) *BucketTester {
	t.archive = a
	return t
}

func (t *BucketTester) Run(ctx context.Context) GradeResult {
	loc, err := t.Locator.Find(BucketDescriptor)
	if err != nil {
		t.board.Adjust(-5, "no bucket.txt file!")
		return t.result()
	}
	if loc.RelPath != BucketDescriptor {
		t.board.Adjust(-0.5, "bad bucket.txt format ["+loc.RelPath+"]")
	}

	text, err := os.ReadFile(t.Locator.Abs(loc))
	if err != nil {
		t.board.Adjust(-5, "no bucket.txt file!", err.Error())
		return t.result()
	}
	bu := MatchBucketURL(string(text))
	switch bu.Kind {
	case URLNone:
		t.board.Adjust(-5, "no valid url in bucket.txt")
		return t.result()
	case URLGS:
		t.Log.Printf("bucket tester: gs:// url used")
		t.board.Adjust(0, "workaround for gsutil in grading script, it works. Awesome job!")
	default:
		t.board.Adjust(0, "valid url in bucket.txt file")
	}

	part := PartitionHadoop
	student, err := t.fetch.Fetch(ctx, bu.URL+part)
	if missingObject(err) || (err == nil && !firstLineIsTuple(student)) {
		part = PartitionSpark
		student, err = t.fetch.Fetch(ctx, bu.URL+part)
	}
	t.Log.Printf("bucket tester: fetched %s%s", bu.URL, part)
	if err != nil {
		t.board.Adjust(-5, "issue with fetch, did you make your bucket public? (consider regrade request!):\n"+bu.URL+part+"\n "+err.Error())
		return t.result()
	}
	if len(student) > 0 {
		t.board.Adjust(0, "valid bucket in bucket file")
	}
	if t.archive != nil {
		if _, err := t.archive.Put("bucket/"+part, bytes.NewReader(student)); err != nil {
			t.Log.Printf("bucket tester: archive %s: %v", part, err)
		}
	}

	t.compare(string(student), part)
	return t.result()
}

// compare accepts either reference ordering; only when both differ is the
// submission penalized.
func (t *BucketTester) compare(student, part string) {
	var diff []string
	for _, ref := range []struct{ key, order string }{
		{BucketReferenceNumeric, "integer ordered"},
		{BucketReferenceLex, "lexicographically ordered"},
	} {
		reference, err := t.readFixture(ref.key)
		if err != nil {
			t.envError("make sure %s and %s are in the grading directory: %v", BucketReferenceNumeric, BucketReferenceLex, err)
			return
		}
		d, err := Diff(student, reference, "student output", "solution")
		if errors.Is(err, ErrBadReference) {
			t.envError("%s: %v", ref.key, err)
			return
		}
		var fe *FormatError
		if errors.As(err, &fe) {
			t.board.Adjust(-0.5, "output format may be wrong (consider submitting regrade request!)\n "+fe.Error())
			return
		}
		if err != nil {
			t.Log.Printf("GRADER ERROR: unexpected diff failure: %v", err)
			t.board.Adjust(0, "unknown failure", err.Error())
			return
		}
		if len(d) == 0 {
			t.Log.Printf("bucket tester: %s", ref.order)
			return
		}
		diff = d
	}
	if len(diff) > maxBucketDiffLines {
		diff = diff[:maxBucketDiffLines]
	}
	t.board.Adjust(-5, "failed diff for gcloud hadoop output ("+part+") - showing only first 20 diffs:\n"+strings.Join(diff, "\n"))
}

// missingObject reports a 4xx answer: the partition does not exist under
// that name, unlike a transport failure.
func missingObject(err error) bool {
	var se *storage.StatusError
	return errors.As(err, &se) && se.Code/100 == 4
}

func firstLineIsTuple(content []byte) bool {
	lines := splitLines(string(content))
	if len(lines) == 0 {
		return false
	}
	_, err := intTuple(lines[0])
	return err == nil
}
