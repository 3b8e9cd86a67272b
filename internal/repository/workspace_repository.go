package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/formloop/formloop-api/internal/models"
)

// WorkspaceRepository reads the workspace membership index. Membership data
// is owned by the workspace module; this repository never writes it.
type WorkspaceRepository struct {
	db *sqlx.DB
}

// NewWorkspaceRepository constructs the repository.
func NewWorkspaceRepository(db *sqlx.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// IsMember reports whether the user is an active member of the workspace.
func (r *WorkspaceRepository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2 AND active)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, workspaceID, userID); err != nil {
		return false, fmt.Errorf("check workspace membership: %w", err)
	}
	return exists, nil
}

// FindMember returns the membership row including role, or nil when the user
// is not an active member.
func (r *WorkspaceRepository) FindMember(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error) {
	const query = `SELECT workspace_id, user_id, role, active, joined_at FROM workspace_members
        WHERE workspace_id = $1 AND user_id = $2 AND active LIMIT 1`
	var member models.WorkspaceMember
	if err := r.db.GetContext(ctx, &member, query, workspaceID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find workspace member: %w", err)
	}
	return &member, nil
}
