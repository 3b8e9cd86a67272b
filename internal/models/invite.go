package models

import "time"

// InviteStatus tracks the lifecycle of a survey invite.
type InviteStatus string

// Possible invite statuses.
const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusResponded InviteStatus = "responded"
	InviteStatusExpired   InviteStatus = "expired"
)

// Invite grants one email address access to a private survey. At most one
// invite exists per (survey_id, email).
type Invite struct {
	ID          string       `db:"id" json:"id"`
	SurveyID    string       `db:"survey_id" json:"survey_id"`
	Email       string       `db:"email" json:"email"`
	Token       string       `db:"token" json:"token"`
	Status      InviteStatus `db:"status" json:"status"`
	InvitedBy   string       `db:"invited_by" json:"invited_by"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
	RespondedAt *time.Time   `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// ExpiredAt reports whether the invite's expiry has passed.
func (i *Invite) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// InviteStats aggregates invite counts for a survey.
type InviteStats struct {
	Total     int `db:"total" json:"total"`
	Pending   int `db:"pending" json:"pending"`
	Responded int `db:"responded" json:"responded"`
	Expired   int `db:"expired" json:"expired"`
}

// InviteValidation is the respondent-facing result of validating a token.
type InviteValidation struct {
	Valid  bool            `json:"valid"`
	Email  string          `json:"email,omitempty"`
	Survey *SurveySnapshot `json:"survey,omitempty"`
}
