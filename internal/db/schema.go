package db

// SchemaSQL is the complete schema for fresh relay stores.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests load it via GetSchemaSQL() so that test schemas cannot drift from
// production: if repository code references a column that does not exist
// here, tests fail immediately with "no such column".
//
// The mail table is append-only. Nothing ever updates a message row except
// its status column, and nothing deletes from any table; threads and tasks
// are archived or marked failed, never removed.
const SchemaSQL = `
-- Projects (one row per orchestrated unit of work)
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	tier TEXT NOT NULL CHECK(tier IN ('light', 'standard', 'heavy')) DEFAULT 'standard',
	status TEXT NOT NULL CHECK(status IN ('active', 'paused', 'complete', 'archived')) DEFAULT 'active',
	plan_hash TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Threads (hierarchical message grouping: project -> sprint -> task)
CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	parent_thread_id TEXT,
	kind TEXT NOT NULL CHECK(kind IN ('planning', 'sprint', 'task', 'escalation', 'change-request')),
	status TEXT NOT NULL CHECK(status IN ('open', 'archived')) DEFAULT 'open',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project_id) REFERENCES projects(id),
	FOREIGN KEY (parent_thread_id) REFERENCES threads(id)
);

-- Messages (append-only mail log; the source of truth for all derived state)
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	from_role TEXT NOT NULL,
	to_role TEXT NOT NULL,
	subject TEXT NOT NULL,
	body TEXT NOT NULL,
	importance TEXT NOT NULL CHECK(importance IN ('normal', 'high', 'critical')) DEFAULT 'normal',
	status TEXT NOT NULL CHECK(status IN ('unread', 'read', 'acknowledged', 'assigned', 'resolved')) DEFAULT 'unread',
	task_id TEXT,
	sprint_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (thread_id) REFERENCES threads(id),
	FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id);
CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(project_id, to_role, status);

-- Sprints (phase grouping; dependencies stored as JSON array of sprint IDs)
CREATE TABLE IF NOT EXISTS sprints (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	number INTEGER NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'active', 'complete')) DEFAULT 'pending',
	dependencies TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (project_id) REFERENCES projects(id),
	UNIQUE(project_id, number)
);

-- Tasks (graph nodes; targets and dependencies stored as JSON arrays)
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	sprint_id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'running', 'complete', 'failed', 'blocked')) DEFAULT 'pending',
	targets TEXT NOT NULL DEFAULT '[]',
	dependencies TEXT NOT NULL DEFAULT '[]',
	tier TEXT NOT NULL CHECK(tier IN ('light', 'standard', 'heavy')) DEFAULT 'standard',
	retry_count INTEGER NOT NULL DEFAULT 0,
	max_retries INTEGER NOT NULL DEFAULT 2,
	started_at DATETIME,
	completed_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (sprint_id) REFERENCES sprints(id),
	FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(project_id, status);

-- Bugs (defect ledger with bounded fix/verify cycles)
CREATE TABLE IF NOT EXISTS bugs (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	filed_by TEXT NOT NULL,
	assigned_to TEXT NOT NULL,
	severity TEXT NOT NULL CHECK(severity IN ('low', 'medium', 'high', 'critical')) DEFAULT 'medium',
	status TEXT NOT NULL CHECK(status IN ('open', 'in_progress', 'fixed', 'verified', 'closed', 'escalated')) DEFAULT 'open',
	cycle INTEGER NOT NULL DEFAULT 0,
	max_cycles INTEGER NOT NULL DEFAULT 3,
	history TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (task_id) REFERENCES tasks(id),
	FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE INDEX IF NOT EXISTS idx_bugs_task ON bugs(task_id);

-- Approvals (written only through the human channel; relay reads, never sets)
CREATE TABLE IF NOT EXISTS approvals (
	artifact_id TEXT PRIMARY KEY,
	approved INTEGER NOT NULL DEFAULT 0,
	approved_by TEXT,
	approved_at DATETIME
);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Test files must use this instead of hardcoding CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}
