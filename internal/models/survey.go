package models

import "time"

// SurveyVisibility is the canonical audience gate for a survey.
type SurveyVisibility string

// Possible survey visibilities.
const (
	VisibilityPublic           SurveyVisibility = "public"
	VisibilityAuthenticated    SurveyVisibility = "authenticated"
	VisibilityWorkspaceMembers SurveyVisibility = "workspace_members"
	VisibilityPrivate          SurveyVisibility = "private"
)

// Valid reports whether the visibility is one of the known variants.
func (v SurveyVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityAuthenticated, VisibilityWorkspaceMembers, VisibilityPrivate:
		return true
	}
	return false
}

// VisibilityFromAccessType maps the legacy access_type vocabulary onto the
// canonical visibility enum. Unknown values map to the empty string so
// callers can reject them instead of silently defaulting.
func VisibilityFromAccessType(accessType string) SurveyVisibility {
	switch accessType {
	case "public":
		return VisibilityPublic
	case "public_with_login":
		return VisibilityAuthenticated
	case "internal":
		return VisibilityWorkspaceMembers
	case "private":
		return VisibilityPrivate
	}
	return ""
}

// AccessType returns the legacy access_type string for API compatibility.
func (v SurveyVisibility) AccessType() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityAuthenticated:
		return "public_with_login"
	case VisibilityWorkspaceMembers:
		return "internal"
	case VisibilityPrivate:
		return "private"
	}
	return ""
}

// SurveyIdentityMode controls whether respondents must be identified.
type SurveyIdentityMode string

// Possible identity modes.
const (
	IdentityAnonymousOnly  SurveyIdentityMode = "anonymous_only"
	IdentityIdentifiedOnly SurveyIdentityMode = "identified_only"
	IdentityMixed          SurveyIdentityMode = "mixed"
)

// Valid reports whether the identity mode is a known variant.
func (m SurveyIdentityMode) Valid() bool {
	switch m {
	case IdentityAnonymousOnly, IdentityIdentifiedOnly, IdentityMixed:
		return true
	}
	return false
}

// SurveyStatus represents the publication lifecycle of a survey.
type SurveyStatus string

// Possible survey statuses.
const (
	SurveyStatusDraft    SurveyStatus = "draft"
	SurveyStatusActive   SurveyStatus = "active"
	SurveyStatusClosed   SurveyStatus = "closed"
	SurveyStatusAnalyzed SurveyStatus = "analyzed"
)

// Survey is the authored questionnaire that collectors and invites hang off.
type Survey struct {
	ID           string             `db:"id" json:"id"`
	WorkspaceID  *string            `db:"workspace_id" json:"workspace_id,omitempty"`
	OwnerID      string             `db:"owner_id" json:"owner_id"`
	Title        string             `db:"title" json:"title"`
	Description  string             `db:"description" json:"description"`
	Visibility   SurveyVisibility   `db:"visibility" json:"visibility"`
	IdentityMode SurveyIdentityMode `db:"identity_mode" json:"identity_mode"`
	Status       SurveyStatus       `db:"status" json:"status"`
	StartDate    *time.Time         `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time         `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// AcceptingAt reports whether the survey accepts responses at the given
// instant, considering status and the optional date window.
func (s *Survey) AcceptingAt(now time.Time) bool {
	if s.Status != SurveyStatusActive {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// SurveyFilter provides filters for listing surveys.
type SurveyFilter struct {
	WorkspaceID string
	OwnerID     string
	Status      SurveyStatus
	Page        int
	PageSize    int
}
