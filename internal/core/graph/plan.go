package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Plan is the submitted sprint/task plan document. Sprints carry their
// dependency set by number; tasks reference dependencies by name.
type Plan struct {
	Project string       `yaml:"project"`
	Sprints []PlanSprint `yaml:"sprints"`
}

// PlanSprint is one sprint entry in a plan document.
type PlanSprint struct {
	Number    int        `yaml:"number"`
	DependsOn []int      `yaml:"depends_on"`
	Tasks     []PlanTask `yaml:"tasks"`
}

// PlanTask is one task entry in a plan document.
type PlanTask struct {
	Name      string   `yaml:"name"`
	Targets   []string `yaml:"targets"`
	DependsOn []string `yaml:"depends_on"`
}

// ParsePlan parses a YAML plan document. Unknown fields are rejected so a
// typo in a plan surfaces at submission, not as silently ignored structure.
func ParsePlan(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, &GraphError{Reason: fmt.Sprintf("invalid plan document: %v", err)}
	}
	if plan.Project == "" {
		return nil, &GraphError{Reason: "plan is missing a project name"}
	}
	if len(plan.Sprints) == 0 {
		return nil, &GraphError{Reason: "plan declares no sprints"}
	}
	return &plan, nil
}

// PlanHash returns a stable content hash of a plan document, used to detect
// whether the plan changed between a spawn and its recovery re-spawn.
func PlanHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
