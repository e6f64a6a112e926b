package exec_shell

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/davarch/ci-runner/internal/domain"
)

type Runner struct {
	shell string
}

func New(shell string) *Runner {
	if shell == "" {
		shell = "sh"
	}
	return &Runner{shell: shell}
}

// Run executes one step as `<shell> -c <cmd>` in the workspace directory.
// extraEnv is appended to the current environment; a zero step timeout
// means no limit beyond ctx.
func (r *Runner) Run(ctx context.Context, step domain.Step, workspace string, extraEnv []string) (string, error) {
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.shell, "-c", step.Run)
	cmd.Dir = workspace
	cmd.Env = append(os.Environ(), extraEnv...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.String(), err
}
