package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes an external command. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		slog.Error("OCR command failed",
			"command", name,
			"duration", time.Since(start),
			"stderr", errb.String(),
			"error", err,
		)
		return out.Bytes(), errb.Bytes(), err
	}

	slog.Debug("OCR command finished", "command", name, "duration", time.Since(start))
	return out.Bytes(), errb.Bytes(), nil
}
