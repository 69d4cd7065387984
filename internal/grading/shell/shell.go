package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// ErrTimeout is returned when a command outlives the runner's timeout.
var ErrTimeout = errors.New("command timed out")

// ExitError is a command that ran and exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exit status %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// pipefail for plain sh, enabled only where it is supported; dash rejects
// the option.
const pipefail = "(set -o pipefail) 2>/dev/null && set -o pipefail; "

// shellArgv picks bash with pipefail, so a failing stage fails the whole
// pipeline, and falls back to sh.
func shellArgv(command string) ([]string, error) {
	if bash, err := exec.LookPath("bash"); err == nil {
		return []string{bash, "-o", "pipefail", "-c", command}, nil
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		return nil, errors.New("neither bash nor sh found in PATH")
	}
	return []string{sh, "-c", pipefail + command}, nil
}

// Runner executes shell command lines with bash -c, or sh -c without bash.
type Runner struct {
	Dir     string
	Timeout time.Duration
}

func NewRunner(dir string) *Runner {
	return &Runner{Dir: dir, Timeout: 2 * time.Minute}
}

// Run executes command and returns its standard output. With bash (or an sh
// that knows pipefail) the exit status reflects any failing stage.
func (r *Runner) Run(ctx context.Context, command string) (string, error) {
	argv, err := shellArgv(command)
	if err != nil {
		return "", err
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	// kill the whole pipeline, not only sh
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL) }
	cmd.WaitDelay = time.Second
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return out.String(), fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return out.String(), &ExitError{Code: ee.ExitCode(), Stderr: stderr.String()}
		}
		return out.String(), err
	}
	return out.String(), nil
}

// Chmod marks a submission file executable. Relative paths resolve against Dir.
func (r *Runner) Chmod(path string, mode os.FileMode) error {
	if !strings.HasPrefix(path, "/") && r.Dir != "" {
		path = r.Dir + "/" + path
	}
	return os.Chmod(path, mode)
}

// Quote wraps s in single quotes for sh.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
