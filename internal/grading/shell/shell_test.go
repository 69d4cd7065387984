package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunner_Pipeline(t *testing.T) {
	r := NewRunner(t.TempDir())
	out, err := r.Run(context.Background(), "printf '3\\n1\\n2\\n' | sort")
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\n2\n3\n" {
		t.Fatalf("out = %q", out)
	}
}

func TestRunner_ExitError(t *testing.T) {
	r := NewRunner(t.TempDir())
	_, err := r.Run(context.Background(), "echo broken >&2; exit 3")
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if ee.Code != 3 || strings.TrimSpace(ee.Stderr) != "broken" {
		t.Fatalf("exit error = %+v", ee)
	}
}

func TestRunner_Timeout(t *testing.T) {
	r := &Runner{Dir: t.TempDir(), Timeout: 200 * time.Millisecond}
	start := time.Now()
	_, err := r.Run(context.Background(), "sleep 5 | cat")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("pipeline was not killed promptly")
	}
}

func TestRunner_ChmodAndQuote(t *testing.T) {
	dir := t.TempDir()
	name := "it's mapper.py"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\necho ok\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRunner(dir)
	if err := r.Chmod(name, 0o755); err != nil {
		t.Fatal(err)
	}
	out, err := r.Run(context.Background(), "./"+Quote(name))
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok\n" {
		t.Fatalf("out = %q", out)
	}
}

func TestRunner_FailingMiddleStage(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not installed; sh may lack pipefail")
	}
	r := NewRunner(t.TempDir())
	_, err := r.Run(context.Background(), "echo 1 2 3 | sh -c 'cat >/dev/null; echo mapper died >&2; exit 3' | sort")
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError from the failing stage, got %v", err)
	}
	if ee.Code != 3 || !strings.Contains(ee.Stderr, "mapper died") {
		t.Fatalf("exit error = %+v", ee)
	}
}

func TestShellArgv(t *testing.T) {
	argv, err := shellArgv("true")
	if err != nil {
		t.Fatal(err)
	}
	if _, berr := exec.LookPath("bash"); berr == nil {
		if len(argv) != 5 || argv[1] != "-o" || argv[2] != "pipefail" || argv[4] != "true" {
			t.Fatalf("argv = %q", argv)
		}
		return
	}
	if argv[len(argv)-1] != pipefail+"true" {
		t.Fatalf("argv = %q", argv)
	}
}
