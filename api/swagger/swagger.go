package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Formloop API",
        "description": "Survey access control and response lifecycle service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Surveys", "description": "Survey administration"},
        {"name": "Collectors", "description": "Collector registry and respondent entry points"},
        {"name": "Invites", "description": "Invite ledger for private surveys"},
        {"name": "Responses", "description": "Response lifecycle and statistics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/surveys": {
            "get": {
                "tags": ["Surveys"],
                "summary": "List surveys",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "workspace_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Surveys"],
                "summary": "Create survey",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSurveyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/surveys/{id}": {
            "get": {
                "tags": ["Surveys"],
                "summary": "Get survey",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["Surveys"],
                "summary": "Delete survey without responses",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Survey has responses"}
                }
            }
        },
        "/surveys/{id}/status": {
            "put": {
                "tags": ["Surveys"],
                "summary": "Update survey status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSurveyStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/surveys/{id}/collectors": {
            "get": {
                "tags": ["Collectors"],
                "summary": "List collectors of a survey",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collectors": {
            "post": {
                "tags": ["Collectors"],
                "summary": "Create collector",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCollectorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/collectors/{id}/active": {
            "put": {
                "tags": ["Collectors"],
                "summary": "Activate or deactivate collector",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetCollectorActiveRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/collector/token/{token}": {
            "get": {
                "tags": ["Collectors"],
                "summary": "Resolve a collector token to its survey snapshot",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Authorization failed"},
                    "404": {"description": "Unknown, inactive or expired collector, or survey not accepting"}
                }
            }
        },
        "/collector/token/{token}/responses": {
            "post": {
                "tags": ["Collectors"],
                "summary": "Submit a response through a collector",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Access denied"},
                    "404": {"description": "Unknown token"},
                    "409": {"description": "Duplicate response"},
                    "422": {"description": "Missing required answer"}
                }
            }
        },
        "/surveys/{id}/invites": {
            "get": {
                "tags": ["Invites"],
                "summary": "List invites of a survey",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Invites"],
                "summary": "Issue invites for a private survey",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInvitesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/surveys/{id}/invites/stats": {
            "get": {
                "tags": ["Invites"],
                "summary": "Invite counts by status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invites/{token}/validate": {
            "get": {
                "tags": ["Invites"],
                "summary": "Validate an invite token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown token"},
                    "410": {"description": "Expired or already used"}
                }
            }
        },
        "/responses/stats/{surveyId}": {
            "get": {
                "tags": ["Responses"],
                "summary": "Response counts by status",
                "parameters": [
                    {"name": "surveyId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/responses/completion-rate/{surveyId}": {
            "get": {
                "tags": ["Responses"],
                "summary": "Completion rate",
                "parameters": [
                    {"name": "surveyId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/responses/{id}": {
            "get": {
                "tags": ["Responses"],
                "summary": "Get response",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateSurveyRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "visibility": {"type": "string", "enum": ["public", "authenticated", "workspace_members", "private"]},
                "access_type": {"type": "string", "enum": ["public", "public_with_login", "internal", "private"]},
                "identity_mode": {"type": "string", "enum": ["anonymous_only", "identified_only", "mixed"]},
                "workspace_id": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["title"]
        },
        "UpdateSurveyStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["draft", "active", "closed", "analyzed"]}
            },
            "required": ["status"]
        },
        "CreateCollectorRequest": {
            "type": "object",
            "properties": {
                "survey_id": {"type": "string"},
                "collector_type": {"type": "string", "enum": ["web_link", "qr_code", "email", "embedded"]},
                "allow_multiple_responses": {"type": "boolean"},
                "expires_at": {"type": "string"}
            },
            "required": ["survey_id", "collector_type"]
        },
        "SetCollectorActiveRequest": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"}
            }
        },
        "CreateInvitesRequest": {
            "type": "object",
            "properties": {
                "emails": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["emails"]
        },
        "AnswerInput": {
            "type": "object",
            "properties": {
                "questionId": {"type": "string"},
                "value": {"type": "object"}
            },
            "required": ["questionId"]
        },
        "SubmitRequest": {
            "type": "object",
            "properties": {
                "answers": {"type": "array", "items": {"$ref": "#/definitions/AnswerInput"}},
                "invite_token": {"type": "string"},
                "session_id": {"type": "string"}
            },
            "required": ["answers"]
        },
        "SubmissionReceipt": {
            "type": "object",
            "properties": {
                "response_id": {"type": "string"},
                "survey_id": {"type": "string"},
                "submitted_at": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
