// Package wall contains the context-isolation filter. Project is a pure
// function from (role, task, mail history) to the mail that role may see
// before it runs. The implementer and tester for a task sit on opposite
// sides of a blind wall: neither sees anything the other produced for that
// task until the task's verification step begins. Violations are a
// correctness bug, not a runtime policy decision.
package wall

import "github.com/example/relay/internal/models"

// Payload is the filtered view handed to one worker invocation.
type Payload struct {
	Role     models.Role
	TaskID   string
	Messages []*models.Message
}

// denyRule hides a message from a role. Rules are evaluated in order; any
// match hides the message.
type denyRule struct {
	name    string
	applies func(role models.Role, task *models.Task, msg *models.Message, verifying bool) bool
}

var denyRules = []denyRule{
	{
		// The wall itself: mail authored by the opposing wall role for the
		// same task is invisible until verification begins.
		name: "blind-wall",
		applies: func(role models.Role, task *models.Task, msg *models.Message, verifying bool) bool {
			if verifying {
				return false
			}
			opposite, walled := role.WallOpposite()
			if !walled {
				return false
			}
			return msg.FromRole == opposite && msg.TaskID.Valid && msg.TaskID.String == task.ID
		},
	},
	{
		// Mail addressed to a specific other role is private to that role,
		// unless it came from or is going to the requester.
		name: "not-addressed",
		applies: func(role models.Role, task *models.Task, msg *models.Message, verifying bool) bool {
			return msg.ToRole != role && msg.FromRole != role && msg.ToRole != models.RoleRelay
		},
	},
}

// Project computes the mail subset a role may see for a task. Deterministic:
// message order in equals message order out, minus denied entries. The tier
// bounds history depth: light sees the task thread only, standard adds the
// sprint, heavy sees the full project history.
func Project(role models.Role, task *models.Task, mail []*models.Message, verifying bool) Payload {
	payload := Payload{Role: role, TaskID: task.ID}

	for _, msg := range mail {
		if !inHistoryDepth(task, msg) {
			continue
		}
		if denied(role, task, msg, verifying) {
			continue
		}
		payload.Messages = append(payload.Messages, msg)
	}
	return payload
}

func denied(role models.Role, task *models.Task, msg *models.Message, verifying bool) bool {
	for _, rule := range denyRules {
		if rule.applies(role, task, msg, verifying) {
			return true
		}
	}
	return false
}

func inHistoryDepth(task *models.Task, msg *models.Message) bool {
	switch task.Tier {
	case models.TierLight:
		return msg.TaskID.Valid && msg.TaskID.String == task.ID
	case models.TierStandard:
		if msg.TaskID.Valid && msg.TaskID.String == task.ID {
			return true
		}
		return msg.SprintID.Valid && msg.SprintID.String == task.SprintID
	default: // heavy: full accumulated history
		return msg.ProjectID == task.ProjectID
	}
}
