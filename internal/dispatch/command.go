package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/straylight-ai/wintermute/internal/mission"
	"github.com/straylight-ai/wintermute/internal/types"
)

// commandWaitDelay bounds how long we wait for a killed subprocess to
// release its pipes before abandoning it.
const commandWaitDelay = 5 * time.Second

// runCommand spawns the step's command as a direct subprocess. No shell is
// involved: the command is argv[0] and args are passed verbatim, so shell
// metacharacters have no effect here.
func (d *Dispatcher) runCommand(ctx context.Context, step *mission.MissionStep) (map[string]any, error) {
	command := strings.TrimSpace(step.StringParam("command"))
	if command == "" {
		return nil, types.NewError(types.STEP_INVALID_PARAMS, "command parameter is empty")
	}

	args := step.StringSliceParam("args")

	// A command string with embedded whitespace and no explicit args is
	// split into argv for convenience. The policy gate derives argv[0] with
	// the same rule.
	if len(args) == 0 {
		if fields := strings.Fields(command); len(fields) > 1 {
			command, args = fields[0], fields[1:]
		}
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = d.workRoot
	cmd.WaitDelay = commandWaitDelay
	cmd.Cancel = func() error {
		// Kill the whole process, not just signal it, so a timed-out step
		// cannot leave work running.
		return cmd.Process.Kill()
	}

	if dir := step.StringParam("working_dir"); dir != "" {
		resolved, err := d.resolvePath(dir)
		if err != nil {
			return nil, err
		}
		cmd.Dir = resolved
	}
	// The work root exists only once something creates it; a command step may
	// be the first to run there.
	if err := os.MkdirAll(cmd.Dir, 0o755); err != nil {
		return nil, types.WrapError(types.STEP_EXEC_FAILED, "failed to create working dir", err)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	output := map[string]any{
		"command":   command,
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	}

	if ctx.Err() != nil {
		// Deadline or cancellation killed the process; surface the context
		// error so the caller records a timeout rather than a failure.
		return output, ctx.Err()
	}
	if err != nil {
		return output, types.WrapError(types.STEP_EXEC_FAILED,
			fmt.Sprintf("command %q exited with error", command), err)
	}
	return output, nil
}
