package models

// Role identifies a worker role. Messages are addressed by role, never by
// worker identity: routing resolves a role to whichever inbox is live for
// the task at hand.
type Role string

const (
	// RolePlanner decomposes work into the sprint/task plan.
	RolePlanner Role = "planner"
	// RoleReviewer challenges a plan before execution (heavy tier only).
	RoleReviewer Role = "reviewer"
	// RoleImplementer writes the code for a task.
	RoleImplementer Role = "implementer"
	// RoleTester writes the tests for a task, blind to the implementer.
	RoleTester Role = "tester"
	// RoleVerifier runs the verification step where the wall comes down.
	RoleVerifier Role = "verifier"
	// RoleQA files and re-checks defects.
	RoleQA Role = "qa"
	// RoleHuman is the escalation target; never spawned.
	RoleHuman Role = "human"
	// RoleRelay is the orchestrator itself, used as sender on system mail.
	RoleRelay Role = "relay"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePlanner, RoleReviewer, RoleImplementer, RoleTester, RoleVerifier, RoleQA, RoleHuman, RoleRelay:
		return true
	}
	return false
}

// WallOpposite returns the role on the other side of the blind wall, and
// whether r participates in the wall at all.
func (r Role) WallOpposite() (Role, bool) {
	switch r {
	case RoleImplementer:
		return RoleTester, true
	case RoleTester:
		return RoleImplementer, true
	}
	return "", false
}
