package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GianlucaP106/gotmux/gotmux"

	"github.com/example/relay/internal/ports/secondary"
)

// TmuxRuntime runs each worker inside its own tmux session so a human can
// attach and watch (or unstick) it. The request is written to a file, the
// session runs `WorkerCmd < request > result`, and Invoke polls for the
// result file. The session is kept around on failure for post-mortem.
type TmuxRuntime struct {
	WorkerCmd string
	WorkDir   string        // where request/result files are exchanged
	Poll      time.Duration // result poll interval; 0 means one second
}

// Invoke launches one worker session and blocks until its result file
// appears or ctx is done.
func (r TmuxRuntime) Invoke(ctx context.Context, req secondary.WorkerRequest) (string, error) {
	if r.WorkerCmd == "" {
		return "", &SpawnError{Reason: "no worker command configured"}
	}

	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return "", &SpawnError{Reason: fmt.Sprintf("tmux unavailable: %v", err)}
	}

	exchange := filepath.Join(r.WorkDir, fmt.Sprintf("%s-%s-a%d", req.TaskID, req.Role, req.Attempt))
	if err := os.MkdirAll(exchange, 0755); err != nil {
		return "", fmt.Errorf("failed to create exchange dir: %w", err)
	}
	requestPath := filepath.Join(exchange, "request.json")
	resultPath := filepath.Join(exchange, "result.json")

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode worker request: %w", err)
	}
	if err := os.WriteFile(requestPath, reqJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to write worker request: %w", err)
	}

	sessionName := workerSessionName(req)
	session, err := tmux.NewSession(&gotmux.SessionOptions{
		Name:           sessionName,
		StartDirectory: exchange,
		ShellCommand:   workerShellCommand(r.WorkerCmd, requestPath, resultPath),
	})
	if err != nil {
		return "", &SpawnError{Reason: fmt.Sprintf("failed to create session %s: %v", sessionName, err)}
	}

	poll := r.Poll
	if poll == 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Session stays alive for inspection; the coordinator already
			// treats this as the never-returned path.
			return "", &SpawnError{Reason: fmt.Sprintf("worker %s for %s never returned: %v", req.Role, req.TaskID, ctx.Err())}
		case <-ticker.C:
			data, err := os.ReadFile(resultPath)
			if err != nil || len(data) == 0 {
				continue
			}
			_ = session.Kill()
			return string(data), nil
		}
	}
}

// workerSessionName carries the attempt number so a session kept alive for
// post-mortem never collides with the retry's fresh session.
func workerSessionName(req secondary.WorkerRequest) string {
	return fmt.Sprintf("relay-%s-%s-a%d", req.TaskID, req.Role, req.Attempt)
}

// workerShellCommand stages the result next to its final path and renames
// it into place, so the poll never reads a half-written file.
func workerShellCommand(workerCmd, requestPath, resultPath string) string {
	staging := resultPath + ".partial"
	return fmt.Sprintf("%s < %s > %s && mv %s %s", workerCmd, requestPath, staging, staging, resultPath)
}

// Ensure TmuxRuntime implements the interface.
var _ secondary.WorkerRuntime = TmuxRuntime{}
