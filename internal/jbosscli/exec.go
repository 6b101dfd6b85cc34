package jbosscli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/logger"
)

// DefaultTimeout bounds a single CLI invocation. The tool itself has no
// timeout, so a hung controller would otherwise block a sweep forever.
const DefaultTimeout = 30 * time.Second

// ExecOptions configures the subprocess runner.
type ExecOptions struct {
	Path    string        // path to jboss-cli.sh
	Timeout time.Duration // per-invocation timeout (default: 30s)
}

// ExecRunner runs the management CLI as a blocking subprocess.
type ExecRunner struct {
	path    string
	timeout time.Duration
	logger  logger.Logger
}

// NewExecRunner creates a runner for the CLI at opts.Path.
func NewExecRunner(opts ExecOptions, log logger.Logger) *ExecRunner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &ExecRunner{
		path:    opts.Path,
		timeout: opts.Timeout,
		logger:  log,
	}
}

// Available reports whether the CLI executable exists at path.
func Available(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Run executes req and never returns an error: timeouts, spawn failures
// and non-zero exits are all reported through Result.
func (r *ExecRunner) Run(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.path, req.Args()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Kill leaves grandchildren holding the pipes open; don't wait on them forever.
	cmd.WaitDelay = 2 * time.Second

	r.logger.Info("executing cli command",
		logger.String("controller", req.Controller()),
		logger.String("kind", KindOf(req.Command)))
	r.logger.Debugf("cli args: %s", req.redactedArgs())

	err := cmd.Run()
	if err == nil {
		return Success(stdout.String())
	}

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		r.logger.Warn("cli command timed out",
			logger.String("controller", req.Controller()),
			logger.Duration("timeout", r.timeout))
		return Failure(FailureTimeout, fmt.Sprintf("timeout after %s", r.timeout))
	case errors.Is(ctxErr, context.Canceled):
		return Failure(FailureCanceled, "canceled")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		payload := stderr.String()
		if len(bytes.TrimSpace(stderr.Bytes())) == 0 {
			// The CLI reports many controller errors on stdout.
			payload = stdout.String()
		}
		if len(bytes.TrimSpace([]byte(payload))) == 0 {
			payload = exitErr.Error()
		}
		r.logger.Error("cli command failed",
			logger.String("controller", req.Controller()),
			logger.Int("exit_code", exitErr.ExitCode()),
			logger.String("stderr", stderr.String()))
		return Failure(FailureExit, payload)
	}

	r.logger.Error("cli command could not start",
		logger.String("path", r.path),
		logger.Error(err))
	return Failure(FailureSpawn, err.Error())
}
