package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner executes one external program and hands back its captured output.
// Logging and error classification happen in Tools.run.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) (stdout, stderr []byte, err error)
}

// pipeGrace bounds how long a cancelled tool may hold its output pipes open,
// e.g. through a grandchild that outlived the killed process.
const pipeGrace = 5 * time.Second

type execRunner struct{}

func (execRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	cmd.WaitDelay = pipeGrace

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
