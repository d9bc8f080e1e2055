package runtime

import (
	"context"
	"sync"

	"github.com/example/relay/internal/ports/secondary"
)

// StubRuntime is an in-process backend for tests and dry runs. Responses are
// scripted per (role, task) key; a missing script yields a SpawnError,
// mirroring a worker that never came up.
type StubRuntime struct {
	mu        sync.Mutex
	scripts   map[string][]string
	callCount map[string]int
	Invoked   []secondary.WorkerRequest
}

// NewStubRuntime creates an empty stub.
func NewStubRuntime() *StubRuntime {
	return &StubRuntime{
		scripts:   make(map[string][]string),
		callCount: make(map[string]int),
	}
}

// Script queues outputs for a (role, taskID) pair, returned one per Invoke
// in order. The last output repeats once the queue is exhausted.
func (s *StubRuntime) Script(role, taskID string, outputs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[role+"/"+taskID] = outputs
}

// Invoke returns the next scripted output for the request.
func (s *StubRuntime) Invoke(ctx context.Context, req secondary.WorkerRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &SpawnError{Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Invoked = append(s.Invoked, req)

	key := req.Role + "/" + req.TaskID
	n := s.callCount[key]
	s.callCount[key]++

	outputs, ok := s.scripts[key]
	if !ok || len(outputs) == 0 {
		return "", &SpawnError{Reason: "no scripted output for " + key}
	}
	if n >= len(outputs) {
		n = len(outputs) - 1
	}
	return outputs[n], nil
}

// Calls returns how many times a (role, taskID) pair was invoked.
func (s *StubRuntime) Calls(role, taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount[role+"/"+taskID]
}

// Ensure StubRuntime implements the interface.
var _ secondary.WorkerRuntime = (*StubRuntime)(nil)
