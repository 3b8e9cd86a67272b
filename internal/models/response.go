package models

import "time"

// ResponseStatus tracks a response through its state machine:
// started -> completed, or started -> abandoned. Both end states are
// terminal.
type ResponseStatus string

// Possible response statuses.
const (
	ResponseStatusStarted   ResponseStatus = "started"
	ResponseStatusCompleted ResponseStatus = "completed"
	ResponseStatusAbandoned ResponseStatus = "abandoned"
)

// Response is one respondent's pass through a survey.
type Response struct {
	ID             string         `db:"id" json:"id"`
	SurveyID       string         `db:"survey_id" json:"survey_id"`
	CollectorID    *string        `db:"collector_id" json:"collector_id,omitempty"`
	RespondentID   *string        `db:"respondent_id" json:"respondent_id,omitempty"`
	SessionID      *string        `db:"session_id" json:"session_id,omitempty"`
	Status         ResponseStatus `db:"status" json:"status"`
	StartedAt      time.Time      `db:"started_at" json:"started_at"`
	LastActivityAt time.Time      `db:"last_activity_at" json:"last_activity_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// ResponseStats aggregates response counts for a survey by status.
type ResponseStats struct {
	Started   int `db:"started" json:"started"`
	Completed int `db:"completed" json:"completed"`
	Abandoned int `db:"abandoned" json:"abandoned"`
	Total     int `db:"total" json:"total"`
}

// CompletionRate reports the completed share of all responses. Rate is zero
// when no responses exist.
type CompletionRate struct {
	Rate      float64 `json:"rate"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
}

// Answer stores one coerced answer value. Exactly one of OptionID,
// TextValue and NumericValue is populated, depending on the question type.
type Answer struct {
	ID           string   `db:"id" json:"id"`
	ResponseID   string   `db:"response_id" json:"response_id"`
	QuestionID   string   `db:"question_id" json:"question_id"`
	OptionID     *string  `db:"option_id" json:"option_id,omitempty"`
	TextValue    *string  `db:"text_value" json:"text_value,omitempty"`
	NumericValue *float64 `db:"numeric_value" json:"numeric_value,omitempty"`
}

// SubmissionReceipt is returned to the respondent after a successful submit.
type SubmissionReceipt struct {
	ResponseID  string    `json:"response_id"`
	SurveyID    string    `json:"survey_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}
