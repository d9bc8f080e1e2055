package runtime

import (
	"strings"
	"testing"

	"github.com/example/relay/internal/ports/secondary"
)

func TestWorkerSessionName_UniquePerAttempt(t *testing.T) {
	req := secondary.WorkerRequest{Role: "implementer", TaskID: "TASK-PROJ-001-001", Attempt: 1}
	first := workerSessionName(req)
	req.Attempt = 2
	second := workerSessionName(req)

	if first == second {
		t.Fatalf("attempts share session name %q; a session kept for post-mortem would collide with the retry", first)
	}
	if !strings.Contains(first, "TASK-PROJ-001-001") || !strings.Contains(first, "implementer") {
		t.Errorf("session name should identify task and role, got %q", first)
	}
}

func TestWorkerShellCommand_RenamesResultIntoPlace(t *testing.T) {
	cmd := workerShellCommand("worker", "/x/request.json", "/x/result.json")

	if !strings.Contains(cmd, "> /x/result.json.partial") {
		t.Errorf("worker output should be staged, got %q", cmd)
	}
	if !strings.HasSuffix(cmd, "mv /x/result.json.partial /x/result.json") {
		t.Errorf("staged result should be renamed into place last, got %q", cmd)
	}
}
