package grading

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mind-engage/fofgrade/internal/grading/shell"
)

// Language is a supported mapper/reducer language.
type Language struct {
	Name      string // interpreter invoked when the script has no shebang
	Extension string
}

// Languages in discovery order.
var Languages = []Language{
	{Name: "python", Extension: "py"},
	{Name: "perl", Extension: "pl"},
}

// Pipeline roles and the base file name expected for each.
var streamRoles = []struct{ role, base, fallback string }{
	{"mapper", "fof.mapper", "mapper.py"},
	{"reducer", "fof.reducer", "reducer.py"},
}

const (
	StreamMaxScore    = 10.0
	DefaultDataset    = "simple.input/*"
	StreamReferenceID = "simple.out"
)

type script struct {
	path string
	lang Language
}

// StreamTester runs the submission's mapper and reducer as a local pipeline
// and compares the output with the reference.
type StreamTester struct {
	base
	shell   Shell
	dataset string
}

func NewStreamTester(sh Shell, dataset string, max float64, opts ...Option) *StreamTester {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return &StreamTester{
		base:    newBase("stream tester", "Script stream tester", max, opts),
		shell:   sh,
		dataset: dataset,
	}
}

func (t *StreamTester) Run(ctx context.Context) GradeResult {
	scripts := t.discover()
	mapper, reducer := t.invocations(scripts)
	cmd := fmt.Sprintf("cat %s | %s | sort | %s | sort", datasetArg(t.dataset), mapper, reducer)
	t.Log.Printf("stream tester: %s", cmd)

	raw, err := t.shell.Run(ctx, cmd)
	if err != nil {
		var ee *shell.ExitError
		detail := err.Error()
		if errors.As(err, &ee) {
			detail = ee.Stderr
		}
		t.board.Adjust(-3, "issue with command (consider regrade request!):\n"+strings.TrimSpace(detail)+"\n"+cmd)
		return t.result()
	}

	student := strings.TrimSpace(raw)
	if cleaned := Canonicalize(student); cleaned != student {
		t.board.Adjust(-1, "invalid output format for map/reduce")
		student = cleaned
	}

	reference, err := t.readFixture(StreamReferenceID)
	if err != nil {
		t.envError("make sure %s is in the grading directory: %v", StreamReferenceID, err)
		return t.result()
	}
	diff, err := Diff(student, reference, "", "solution")
	var fe *FormatError
	switch {
	case errors.Is(err, ErrBadReference):
		t.envError("%s: %v", StreamReferenceID, err)
	case errors.As(err, &fe):
		t.board.Adjust(-5, "output format may be wrong (consider submitting regrade request!).\nYour solution:\n"+student, fe.Error())
	case err != nil:
		t.Log.Printf("GRADER ERROR: unexpected diff failure: %v", err)
		t.board.Adjust(-5, "unknown but fatal failure (consider submitting regrade request!).\n"+err.Error()+"\n"+student)
	case len(diff) > 0:
		t.board.Adjust(-5, "Failed diff: "+strings.Join(diff, "\n"))
	}
	return t.result()
}

// discover locates a script per role, trying languages in order.
func (t *StreamTester) discover() map[string]script {
	found := make(map[string]script, len(streamRoles))
	for _, r := range streamRoles {
		for _, lang := range Languages {
			f, err := t.Locator.Find(r.base + "." + lang.Extension)
			if err != nil {
				continue
			}
			if f.Misplaced {
				t.board.Adjust(-0.5, "wrong filename or directory format ["+f.RelPath+"]")
			}
			found[r.role] = script{path: f.RelPath, lang: lang}
			break
		}
	}
	return found
}

// invocations decides how each script is called: directly when every script
// has a shebang, through its interpreter otherwise.
func (t *StreamTester) invocations(scripts map[string]script) (mapper, reducer string) {
	var missing []string
	for _, r := range streamRoles {
		s, ok := scripts[r.role]
		if !ok {
			continue
		}
		if !hasShebang(t.Locator.Abs(LocatedFile{RelPath: s.path})) {
			missing = append(missing, s.path)
		}
	}
	direct := len(missing) == 0 && len(scripts) > 0
	if len(missing) > 0 {
		t.board.Adjust(-0.5, "missing the shebang in "+strings.Join(missing, ", "))
	}
	if direct {
		for _, r := range streamRoles {
			s, ok := scripts[r.role]
			if !ok {
				continue
			}
			if err := t.shell.Chmod(s.path, 0o755); err != nil {
				t.board.Adjust(-0.5, "could not mark "+s.path+" executable", err.Error())
				direct = false
			}
		}
	}

	calls := make([]string, len(streamRoles))
	for i, r := range streamRoles {
		s, ok := scripts[r.role]
		switch {
		case !ok:
			calls[i] = "python " + r.fallback
		case direct:
			calls[i] = "./" + shell.Quote(s.path)
		default:
			calls[i] = s.lang.Name + " " + shell.Quote(s.path)
		}
	}
	return calls[0], calls[1]
}

func hasShebang(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.Contains(line, "#!")
}

// datasetArg quotes the directory part of a glob and leaves the pattern for sh.
func datasetArg(glob string) string {
	dir, pattern := filepath.Split(glob)
	if dir == "" {
		return pattern
	}
	return shell.Quote(filepath.Clean(dir)) + "/" + pattern
}
