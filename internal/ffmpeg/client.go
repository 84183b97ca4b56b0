package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures the output streams of a finished engine invocation. The
// engine writes its diagnostics, including the loudnorm JSON report, to
// stderr.
type Result struct {
	Stdout string
	Stderr string
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps invocations of the located engine binary.
type Client struct {
	binary string
	exec   Executor
}

// New constructs an engine client around a resolved binary path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("engine binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the resolved engine path.
func (c *Client) Binary() string {
	return c.binary
}

// Run executes the engine with the given arguments, returning captured
// output. A non-zero exit returns the partial Result alongside the error so
// callers can surface the diagnostic stream.
func (c *Client) Run(ctx context.Context, args ...string) (Result, error) {
	return c.exec.Run(ctx, c.binary, args)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("run %s: %w", binary, err)
	}
	return result, nil
}

// StderrExcerpt returns the trailing lines of the diagnostic stream,
// trimmed for inclusion in user-facing error messages.
func StderrExcerpt(result Result, maxLines int) string {
	lines := strings.Split(strings.TrimSpace(result.Stderr), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
