package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxDiagnostic is how much of the ffmpeg stderr ends up in the log.
const maxDiagnostic = 200

// snapshot runs one ffmpeg invocation, ctx bounds it.
func snapshot(ctx context.Context, cfg Config, source string) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, cfg.Binary, args(cfg, source)...)
	cmd.Stdout = Stdout
	cmd.Stderr = &stderr
	// do not wait for orphaned children holding stderr open
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("timed out: %w", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("failed with status %d: %s", exitErr.ExitCode(), diagnostic(stderr.Bytes()))
	}
	return fmt.Errorf("execution error: %w", err)
}

// ffmpeg -y -i "rtsp://..." -frames:v 1 [-vf scale=W:-2] "/path/to/output.jpg"
func args(cfg Config, source string) []string {
	a := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", source,
		"-frames:v", "1",
	}
	if cfg.Width > 0 {
		// height "-2" keeps the aspect ratio
		a = append(a, "-vf", fmt.Sprintf("scale=%d:-2", cfg.Width))
	}
	return append(a, cfg.Output)
}

func diagnostic(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxDiagnostic {
		s = s[:maxDiagnostic] + "..."
	}
	return s
}
