// Package executor runs external client tools in child processes.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Command describes one child process. Exactly one of Args or Shell is set:
// Args is executed directly, Shell is handed to /bin/sh -c.
type Command struct {
	Args  []string
	Shell string
	Stdin io.Reader
	// Env is added on top of the parent environment for this process only.
	Env map[string]string
	Dir string
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Err returns an *ExitError when the process exited with a non-zero status.
func (r *Result) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{Code: r.ExitCode, Stderr: strings.TrimSpace(r.Stderr)}
}

// ExitError reports a process that ran but failed.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, e.Stderr)
}

// Runner runs commands. Run only fails when the process could not be started
// or waited on; a non-zero exit is reported through the Result.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Shell is the interpreter used for Command.Shell. Defaults to /bin/sh.
	Shell string
}

func (r ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	cmd, err := r.command(ctx, c)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = c.Stdin
	cmd.Dir = c.Dir
	cmd.Env = Environ(os.Environ(), c.Env)

	start := time.Now()
	err = cmd.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && exitErr.Exited():
		res.ExitCode = exitErr.ExitCode()
	case ctx.Err() != nil:
		return res, fmt.Errorf("run %s: %w", cmd.Path, ctx.Err())
	default:
		return res, fmt.Errorf("run %s: %w", cmd.Path, err)
	}
	return res, nil
}

func (r ExecRunner) command(ctx context.Context, c Command) (*exec.Cmd, error) {
	switch {
	case c.Shell != "" && len(c.Args) > 0:
		return nil, errors.New("command has both args and a shell string")
	case c.Shell != "":
		shell := r.Shell
		if shell == "" {
			shell = "/bin/sh"
		}
		return exec.CommandContext(ctx, shell, "-c", c.Shell), nil
	case len(c.Args) > 0:
		return exec.CommandContext(ctx, c.Args[0], c.Args[1:]...), nil
	default:
		return nil, errors.New("empty command")
	}
}

// Environ returns base with extra applied as KEY=value entries. Keys already
// present in base are replaced. Neither input is modified.
func Environ(base []string, extra map[string]string) []string {
	out := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := extra[key]; ok {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+extra[k])
	}
	return out
}
