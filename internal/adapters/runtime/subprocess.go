// Package runtime contains worker invocation backends. A worker is a
// stateless process: it reads one JSON request on stdin, does its work, and
// writes one result on stdout. The relay never inspects anything else about
// it, which is what lets a subprocess, a tmux session, and an in-process
// stub satisfy the same port.
package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/relay/internal/ports/secondary"
)

// SpawnError reports that a worker process failed to start or died before
// producing output. Inputs are idempotent, so the coordinator answers this
// with a clean re-invocation of the original request.
type SpawnError struct {
	Reason string
}

func (e *SpawnError) Error() string {
	return "spawn error: " + e.Reason
}

// SubprocessRuntime runs a worker binary per invocation:
// stdin = JSON WorkerRequest, stdout = the worker's result.
type SubprocessRuntime struct {
	Command string
	Args    []string
}

// Invoke runs one worker process and returns its raw stdout. The context
// carries the invocation timeout; a killed process surfaces as SpawnError.
func (r SubprocessRuntime) Invoke(ctx context.Context, req secondary.WorkerRequest) (string, error) {
	if r.Command == "" {
		return "", &SpawnError{Reason: "no worker command configured"}
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode worker request: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Stdin = strings.NewReader(string(reqJSON) + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", &SpawnError{Reason: fmt.Sprintf("worker %s for %s never returned: %v", req.Role, req.TaskID, ctx.Err())}
		}
		return "", &SpawnError{Reason: fmt.Sprintf("worker %s for %s exited: %v (stderr: %s)", req.Role, req.TaskID, err, strings.TrimSpace(stderr.String()))}
	}

	return stdout.String(), nil
}

// Ensure SubprocessRuntime implements the interface.
var _ secondary.WorkerRuntime = SubprocessRuntime{}
