package extract

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Command runs poppler's pdftotext, document on stdin and text on stdout.
type Command struct {
	binary  string
	timeout time.Duration
}

// NewCommand creates a Command extractor. Empty binary means "pdftotext";
// a non-positive timeout means 30s.
func NewCommand(binary string, timeout time.Duration) *Command {
	if binary == "" {
		binary = "pdftotext"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Command{binary: binary, timeout: timeout}
}

// Extract implements Extractor.
func (c *Command) Extract(ctx context.Context, data []byte) (string, error) {
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return "", failf("%s not found in PATH", c.binary)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-enc", "UTF-8", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", failf("%s exited %d: %s", c.binary, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", failf("run %s: %v", c.binary, err)
	}

	// pdftotext ends each page with a form feed.
	out := strings.ReplaceAll(stdout.String(), "\f", "\n")
	if strings.TrimSpace(out) == "" {
		return "", failf("%s produced no text", c.binary)
	}
	return out, nil
}
