package models

import "net/http"

// ReasonCode is the machine-readable outcome of an access decision.
type ReasonCode string

// Deny reasons, ordered roughly by the decision sequence that produces them.
const (
	ReasonSurveyNotFound      ReasonCode = "SURVEY_NOT_FOUND"
	ReasonSurveyInactive      ReasonCode = "SURVEY_INACTIVE"
	ReasonSurveyNotStarted    ReasonCode = "SURVEY_NOT_STARTED"
	ReasonSurveyEnded         ReasonCode = "SURVEY_ENDED"
	ReasonCollectorNotFound   ReasonCode = "COLLECTOR_NOT_FOUND"
	ReasonCollectorInactive   ReasonCode = "COLLECTOR_INACTIVE"
	ReasonCollectorExpired    ReasonCode = "COLLECTOR_EXPIRED"
	ReasonAuthRequired        ReasonCode = "AUTH_REQUIRED"
	ReasonNotWorkspaceMember  ReasonCode = "NOT_WORKSPACE_MEMBER"
	ReasonInvalidSurveyConfig ReasonCode = "INVALID_SURVEY_CONFIG"
	ReasonInviteMissing       ReasonCode = "INVITE_MISSING"
	ReasonInviteExpired       ReasonCode = "INVITE_EXPIRED"
	ReasonInviteWrongSurvey   ReasonCode = "INVITE_WRONG_SURVEY"
	ReasonInviteAlreadyUsed   ReasonCode = "INVITE_ALREADY_USED"
	ReasonDuplicateResponse   ReasonCode = "DUPLICATE_RESPONSE"
)

// ReasonStatus maps every deny reason to its fixed HTTP status: 404 for
// not-found and not-usable resources, 403 for authorization failures. The
// mapping is part of the API contract; clients branch on status alone.
var ReasonStatus = map[ReasonCode]int{
	ReasonSurveyNotFound:      http.StatusNotFound,
	ReasonSurveyInactive:      http.StatusNotFound,
	ReasonSurveyNotStarted:    http.StatusNotFound,
	ReasonSurveyEnded:         http.StatusNotFound,
	ReasonCollectorNotFound:   http.StatusNotFound,
	ReasonCollectorInactive:   http.StatusNotFound,
	ReasonCollectorExpired:    http.StatusNotFound,
	ReasonAuthRequired:        http.StatusForbidden,
	ReasonNotWorkspaceMember:  http.StatusForbidden,
	ReasonInvalidSurveyConfig: http.StatusForbidden,
	ReasonInviteMissing:       http.StatusForbidden,
	ReasonInviteExpired:       http.StatusForbidden,
	ReasonInviteWrongSurvey:   http.StatusForbidden,
	ReasonInviteAlreadyUsed:   http.StatusForbidden,
	ReasonDuplicateResponse:   http.StatusForbidden,
}

// Decision is the outcome of evaluating survey access. Policy denials are
// values, not errors; only I/O failures surface as errors.
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  ReasonCode `json:"reason_code,omitempty"`
	Detail  string     `json:"detail,omitempty"`
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason ReasonCode) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// DenyDetail returns a denying decision with extra human-readable context.
func DenyDetail(reason ReasonCode, detail string) Decision {
	return Decision{Allowed: false, Reason: reason, Detail: detail}
}

// IdentityContext carries the authenticated identity of the caller, if any.
// It is produced by the JWT middleware; an unauthenticated respondent gets
// the zero value.
type IdentityContext struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Role          string `json:"role,omitempty"`
}
