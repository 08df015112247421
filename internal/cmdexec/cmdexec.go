// Package cmdexec runs external commands with output capture, environment
// injection, and context cancellation. The artifact builder uses it to drive
// the project's packaging tool.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Result holds the captured output and exit code of one command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Options configures command execution behavior.
type Options struct {
	// WorkDir is the working directory for the command.
	WorkDir string

	// Env holds extra environment variables, appended to the current
	// process environment.
	Env map[string]string
}

// Option mutates Options.
type Option func(*Options)

// WithWorkDir sets the working directory.
func WithWorkDir(dir string) Option {
	return func(o *Options) { o.WorkDir = dir }
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// Runner executes external commands.
type Runner interface {
	// Run executes program with args and returns the captured result.
	// A non-zero exit code is returned as an error alongside the Result.
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// OSRunner is the Runner backed by os/exec.
type OSRunner struct{}

// NewOSRunner returns a Runner that executes real processes.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run implements Runner.
func (r *OSRunner) Run(
	ctx context.Context,
	program string,
	args []string,
	opts ...Option,
) (*Result, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	cmd := exec.CommandContext(ctx, program, args...)
	if options.WorkDir != "" {
		cmd.Dir = options.WorkDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("command %s exited with code %d: %w", program, result.ExitCode, err)
	default:
		result.ExitCode = -1
		return result, fmt.Errorf("command %s failed to start: %w", program, err)
	}
}
