// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the database schema is loaded for
// tests. All setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema; do not hardcode CREATE TABLE statements here.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/relay/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err = testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedProject inserts a test project and returns its ID.
func seedProject(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "PROJ-001"
	}
	_, err := db.Exec("INSERT INTO projects (id, name, status) VALUES (?, 'Test Project', 'active')", id)
	if err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return id
}

// seedThread inserts a test thread and returns its ID.
func seedThread(t *testing.T, db *sql.DB, id, projectID, kind string) string {
	t.Helper()
	if id == "" {
		id = "THR-PROJ-001-001"
	}
	if kind == "" {
		kind = "planning"
	}
	_, err := db.Exec("INSERT INTO threads (id, project_id, kind, status) VALUES (?, ?, ?, 'open')", id, projectID, kind)
	if err != nil {
		t.Fatalf("failed to seed thread: %v", err)
	}
	return id
}

// seedSprint inserts a test sprint and returns its ID.
func seedSprint(t *testing.T, db *sql.DB, id, projectID string, number int) string {
	t.Helper()
	if id == "" {
		id = "SPR-PROJ-001-01"
	}
	_, err := db.Exec("INSERT INTO sprints (id, project_id, number, status) VALUES (?, ?, ?, 'pending')", id, projectID, number)
	if err != nil {
		t.Fatalf("failed to seed sprint: %v", err)
	}
	return id
}

// seedTask inserts a test task and returns its ID.
func seedTask(t *testing.T, db *sql.DB, id, sprintID, projectID string) string {
	t.Helper()
	if id == "" {
		id = "TASK-PROJ-001-001"
	}
	_, err := db.Exec(
		"INSERT INTO tasks (id, sprint_id, project_id, name, status) VALUES (?, ?, ?, 'Test Task', 'pending')",
		id, sprintID, projectID)
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return id
}
