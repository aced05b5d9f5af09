package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lesson Engine API",
        "description": "Conflict detection, utilization, availability and substitution workflow for lesson schedules",
        "version": "1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Conflicts", "description": "Teacher, classroom and student double-booking"},
        {"name": "Utilization", "description": "Classroom occupancy over a reference window"},
        {"name": "Availability", "description": "Free/busy checks for teachers and students"},
        {"name": "Substitutions", "description": "Substitute teacher request workflow"}
    ],
    "paths": {
        "/schedule/conflicts": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Detect conflicts in a session snapshot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DetectConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ConflictReportEnvelope"}},
                    "400": {"description": "Invalid snapshot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid interval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/branches/{id}/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Detect conflicts among stored sessions of a branch",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ConflictReportEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/sweep": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Latest periodic conflict sweep result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No sweep has run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classrooms/{id}/utilization": {
            "get": {
                "tags": ["Utilization"],
                "summary": "Utilization of one classroom on a day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "window_start", "in": "query", "type": "string"},
                    {"name": "window_end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UtilizationReport"}},
                    "422": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/branches/{id}/utilization": {
            "get": {
                "tags": ["Utilization"],
                "summary": "Utilization of every classroom in a branch",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "window_start", "in": "query", "type": "string"},
                    {"name": "window_end", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/availability/teachers": {
            "post": {
                "tags": ["Availability"],
                "summary": "Partition candidate teachers for a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AvailabilityResult"}}
                }
            }
        },
        "/availability/students": {
            "post": {
                "tags": ["Availability"],
                "summary": "Check students against a slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentAvailabilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List substitution requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "branch_id", "in": "query", "type": "string"},
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "substitute_teacher_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Substitutions"],
                "summary": "Request a substitute teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSubstitutionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SubstitutionRequest"}},
                    "409": {"description": "Substitute is busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Get a substitution request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SubstitutionRequest"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}/approve": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Approve a pending request after re-validating the substitute",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SubstitutionRequest"}},
                    "409": {"description": "Stale approval or invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}/complete": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Mark an approved request completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SubstitutionRequest"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}/cancel": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Cancel a pending or approved request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SubstitutionRequest"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SessionPayload": {
            "type": "object",
            "required": ["id", "date", "start_time", "end_time", "branch_id", "kind", "status"],
            "properties": {
                "id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:30"},
                "teacher_id": {"type": "string"},
                "classroom_id": {"type": "string"},
                "branch_id": {"type": "string"},
                "group_id": {"type": "string"},
                "subject": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "kind": {"type": "string", "enum": ["group", "individual"]},
                "status": {"type": "string", "enum": ["scheduled", "completed", "cancelled", "rescheduled"]}
            }
        },
        "DetectConflictsRequest": {
            "type": "object",
            "required": ["sessions"],
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/SessionPayload"}},
                "dimensions": {"type": "array", "items": {"type": "string", "enum": ["teacher", "classroom", "student"]}}
            }
        },
        "ConflictGroup": {
            "type": "object",
            "properties": {
                "dimension": {"type": "string"},
                "resource_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "session_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ConflictReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/ConflictGroup"}}
                },
                "meta": {"type": "object"}
            }
        },
        "UtilizationReport": {
            "type": "object",
            "properties": {
                "classroom_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "window_start": {"type": "string"},
                "window_end": {"type": "string"},
                "occupied_minutes": {"type": "integer"},
                "window_minutes": {"type": "integer"},
                "utilization_percent": {"type": "number"},
                "display_percent": {"type": "number"},
                "overbooked": {"type": "boolean"},
                "contributing_session_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TeacherAvailabilityRequest": {
            "type": "object",
            "required": ["branch_id", "date", "start_time", "end_time"],
            "properties": {
                "candidates": {"type": "array", "items": {"type": "string"}},
                "branch_id": {"type": "string"},
                "subject": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "exclude_session_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "StudentAvailabilityRequest": {
            "type": "object",
            "required": ["student_ids", "date", "start_time", "end_time"],
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "branch_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "exclude_session_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AvailabilityResult": {
            "type": "object",
            "properties": {
                "available": {"type": "array", "items": {"type": "string"}},
                "conflicted": {"type": "array", "items": {"type": "string"}},
                "unknown": {"type": "array", "items": {"type": "string"}},
                "conflicts": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "exceptions": {"type": "array", "items": {"$ref": "#/definitions/ResourceException"}}
            }
        },
        "ResourceException": {
            "type": "object",
            "properties": {
                "resource_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "CreateSubstitutionRequest": {
            "type": "object",
            "required": ["branch_id", "original_teacher_id", "substitute_teacher_id", "date", "start_time", "end_time"],
            "properties": {
                "session_id": {"type": "string"},
                "branch_id": {"type": "string"},
                "original_teacher_id": {"type": "string"},
                "substitute_teacher_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "SubstitutionRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session_id": {"type": "string"},
                "branch_id": {"type": "string"},
                "original_teacher_id": {"type": "string"},
                "substitute_teacher_id": {"type": "string"},
                "substitution_date": {"type": "string", "format": "date-time"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "reason": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "completed", "cancelled"]},
                "requested_by": {"type": "string"},
                "approved_by": {"type": "string"},
                "approved_at": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"},
                "cancelled_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
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
                "status": {"type": "integer"}
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
