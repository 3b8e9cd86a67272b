package models

import "time"

// WorkspaceRole is the member's role within a workspace.
type WorkspaceRole string

const (
	WorkspaceRoleOwner        WorkspaceRole = "OWNER"
	WorkspaceRoleCollaborator WorkspaceRole = "COLLABORATOR"
	WorkspaceRoleViewer       WorkspaceRole = "VIEWER"
)

// WorkspaceMember is a read-only row from the membership index. Membership
// data is owned by the workspace module; this service only consults it.
type WorkspaceMember struct {
	WorkspaceID string        `db:"workspace_id" json:"workspace_id"`
	UserID      string        `db:"user_id" json:"user_id"`
	Role        WorkspaceRole `db:"role" json:"role"`
	Active      bool          `db:"active" json:"active"`
	JoinedAt    time.Time     `db:"joined_at" json:"joined_at"`
}
