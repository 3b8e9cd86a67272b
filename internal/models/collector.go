package models

import "time"

// CollectorType distinguishes how a collector link is distributed.
type CollectorType string

// Possible collector types.
const (
	CollectorWebLink  CollectorType = "web_link"
	CollectorQRCode   CollectorType = "qr_code"
	CollectorEmail    CollectorType = "email"
	CollectorEmbedded CollectorType = "embedded"
)

// Valid reports whether the collector type is a known variant.
func (t CollectorType) Valid() bool {
	switch t {
	case CollectorWebLink, CollectorQRCode, CollectorEmail, CollectorEmbedded:
		return true
	}
	return false
}

// Collector is a distribution channel for a survey, addressed by an opaque
// unguessable token.
type Collector struct {
	ID                     string        `db:"id" json:"id"`
	SurveyID               string        `db:"survey_id" json:"survey_id"`
	Token                  string        `db:"token" json:"token"`
	Type                   CollectorType `db:"collector_type" json:"collector_type"`
	IsActive               bool          `db:"is_active" json:"is_active"`
	AllowMultipleResponses bool          `db:"allow_multiple_responses" json:"allow_multiple_responses"`
	ResponseCount          int           `db:"response_count" json:"response_count"`
	ExpiresAt              *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt              time.Time     `db:"created_at" json:"created_at"`
}

// Expired reports whether the collector's optional expiry has passed.
func (c *Collector) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// CollectorSnapshot is the respondent-facing projection served on collector
// token lookup: the collector plus the survey and its question set.
type CollectorSnapshot struct {
	Collector Collector      `json:"collector"`
	Survey    SurveySnapshot `json:"survey"`
}

// SurveySnapshot is the trimmed survey view embedded in a collector snapshot.
type SurveySnapshot struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AccessType   string     `json:"access_type"`
	RequireLogin bool       `json:"require_login"`
	WorkspaceID  *string    `json:"workspace_id,omitempty"`
	Questions    []Question `json:"questions"`
}
