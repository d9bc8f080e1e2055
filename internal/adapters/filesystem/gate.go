// Package filesystem contains file-backed adapters for secondary ports.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/relay/internal/ports/secondary"
)

// GateAdapter implements secondary.GateChecker against a protection manifest
// maintained by the external enforcement layer. The manifest is a JSON list
// of protected path prefixes at .relay/gates.json; a missing manifest means
// nothing is protected.
type GateAdapter struct {
	dir string
}

// NewGateAdapter creates a gate adapter reading manifests under dir.
func NewGateAdapter(dir string) *GateAdapter {
	return &GateAdapter{dir: dir}
}

type gateManifest struct {
	Protected []string `json:"protected"`
}

// CheckGate evaluates whether the action on target is permitted. A block
// applies to that one action only; the caller reports it as a concern and
// keeps orchestrating.
func (g *GateAdapter) CheckGate(ctx context.Context, actionTarget string) (secondary.GateDecision, error) {
	data, err := os.ReadFile(filepath.Join(g.dir, ".relay", "gates.json"))
	if os.IsNotExist(err) {
		return secondary.GateDecision{Allow: true}, nil
	}
	if err != nil {
		return secondary.GateDecision{}, fmt.Errorf("failed to read gate manifest: %w", err)
	}

	var manifest gateManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return secondary.GateDecision{}, fmt.Errorf("failed to parse gate manifest: %w", err)
	}

	for _, prefix := range manifest.Protected {
		if strings.HasPrefix(actionTarget, prefix) {
			return secondary.GateDecision{
				Allow:  false,
				Reason: fmt.Sprintf("target %s is under protected path %s", actionTarget, prefix),
			}, nil
		}
	}
	return secondary.GateDecision{Allow: true}, nil
}

// Ensure GateAdapter implements the interface.
var _ secondary.GateChecker = (*GateAdapter)(nil)
