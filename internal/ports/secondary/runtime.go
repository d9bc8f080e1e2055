package secondary

import "context"

// WorkerRuntime defines the secondary port for worker invocation. Workers
// are stateless: one request in, one raw response out, nothing shared with
// any other invocation. Any backend that satisfies this (a subprocess, a
// tmux session, an in-process stub) can run the fleet.
type WorkerRuntime interface {
	// Invoke runs exactly one worker and blocks until it returns or ctx
	// is done. The returned string is the worker's raw output, parsed by
	// the output router; Invoke itself makes no claim about its shape.
	Invoke(ctx context.Context, req WorkerRequest) (string, error)
}

// WorkerRequest is the input payload for a single worker invocation.
// Inputs are idempotent: re-invoking with the same request is always safe.
type WorkerRequest struct {
	Role    string `json:"role"`
	TaskID  string `json:"task_id"`
	Payload string `json:"input_payload"`
	// Attempt distinguishes corrective re-invocations (1-based). Backends
	// may surface it to the worker; the payload already carries the
	// progressively explicit instructions.
	Attempt int `json:"attempt"`
}
