package worker

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// commandResult is what a finished (or failed) process reported.
type commandResult struct {
	Stdout   []byte
	ExitCode int
	// Started is false when the binary could not be launched at all.
	Started bool
}

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner runs processes via os/exec. Stderr is discarded.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return commandResult{ExitCode: -1}, err
	}
	err := cmd.Wait()
	result := commandResult{
		Stdout:  stdout.Bytes(),
		Started: true,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}
