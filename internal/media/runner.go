// Package media drives the external speech and video tools.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
)

// stderrLimit caps how much diagnostic output is kept; ffmpeg is chatty and
// the useful part is at the end.
const stderrLimit = 2048

// ToolError is a non-zero exit (or failure to start) of an external tool.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s failed (exit %d): %s", e.Tool, e.ExitCode, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Runner executes tools and captures their output.
type Runner struct {
	log *slog.Logger
}

// NewRunner returns a Runner that logs invocations at debug level.
func NewRunner(log *slog.Logger) *Runner {
	return &Runner{log: logger.OrDiscard(log)}
}

// Run executes bin with args and returns stdout. A non-zero exit becomes a
// *ToolError carrying the tail of stderr (or stdout when stderr is empty).
func (r *Runner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	tool := filepath.Base(bin)
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.log.Debug("tool finished",
		slog.String("tool", tool),
		slog.Duration("took", time.Since(start)),
		slog.Bool("ok", err == nil),
	)
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", tool, ctxErr)
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	diag := stderr.String()
	if strings.TrimSpace(diag) == "" {
		diag = stdout.String()
	}
	return stdout.Bytes(), &ToolError{
		Tool:     tool,
		ExitCode: exitCode,
		Stderr:   tail(diag, stderrLimit),
		Err:      err,
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	// do not start in the middle of a UTF-8 sequence
	for i := 0; i < len(s) && i < 4; i++ {
		if s[i]&0xC0 != 0x80 {
			return s[i:]
		}
	}
	return s
}

// requireOutput checks that a tool actually wrote a non-empty file.
func requireOutput(tool, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s produced no output: %w", tool, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s produced an empty file %s", tool, filepath.Base(path))
	}
	return nil
}
