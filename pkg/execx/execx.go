// Package execx wraps subprocess execution behind an interface so
// collaborators that shell out can be tested without the real tools.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	LookPath(file string) (string, error)
}

// OSRunner runs commands on the host.
type OSRunner struct{}

func (OSRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return stdout.Bytes(), fmt.Errorf("%s failed: %w: %s", name, err, stderr.String())
		}
		return stdout.Bytes(), fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.Bytes(), nil
}

func (OSRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
