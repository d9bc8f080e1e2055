package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/relay/internal/ports/secondary"
)

// ApprovalRepository reads the human approval flags. The relay never writes
// this table through any service path: approvals arrive only through the
// separate human-operated channel (the `relay approve` escape hatch shells
// straight into it, bypassing the services on purpose).
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new SQLite approval repository.
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// IsApproved reports whether a human has approved the artifact. An artifact
// with no row is simply not approved.
func (r *ApprovalRepository) IsApproved(ctx context.Context, artifactID string) (bool, error) {
	var approved int
	err := r.db.QueryRowContext(ctx,
		"SELECT approved FROM approvals WHERE artifact_id = ?", artifactID).Scan(&approved)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check approval: %w", err)
	}
	return approved == 1, nil
}

// Approve records a human approval for the artifact. This is the human
// channel's write path and is deliberately not part of any service port.
func (r *ApprovalRepository) Approve(ctx context.Context, artifactID, approvedBy string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO approvals (artifact_id, approved, approved_by, approved_at)
		 VALUES (?, 1, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(artifact_id) DO UPDATE SET
		   approved = 1, approved_by = excluded.approved_by, approved_at = excluded.approved_at`,
		artifactID, approvedBy)
	if err != nil {
		return fmt.Errorf("failed to record approval: %w", err)
	}
	return nil
}

// Ensure ApprovalRepository implements the interface.
var _ secondary.ApprovalChecker = (*ApprovalRepository)(nil)
