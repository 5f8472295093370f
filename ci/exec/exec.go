// Package exec provides command execution helpers for
// reading metadata from local tools such as git.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Output executes the command and returns its stdout with
// surrounding whitespace removed. Stderr is only reported
// as part of the error.
func Output(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "reading command output"

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Stderr = &stderr

	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf(
			"%s: %s %s: %s: %w",
			errCtx,
			name,
			strings.Join(arg, " "),
			strings.TrimSpace(stderr.String()),
			err,
		)
	}

	out := strings.TrimSpace(string(by))

	slog.Debug("output", "cmd", name, "result", out)

	return out, nil
}
