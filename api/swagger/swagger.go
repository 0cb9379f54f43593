package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GDS Portal API",
        "description": "Graduate defense scheduling portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, session and password management"},
        {"name": "DefenseRequests", "description": "Defense request workflow"},
        {"name": "Scheduling", "description": "Conflict checks, availability and scheduling"},
        {"name": "Panelists", "description": "Panel-eligible faculty roster"},
        {"name": "Honoraria", "description": "Panel honorarium tracking"},
        {"name": "Documents", "description": "Generated documents and signed downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/defense-requests": {
            "get": {
                "tags": ["DefenseRequests"],
                "summary": "List defense requests",
                "parameters": [
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["DefenseRequests"],
                "summary": "Submit a defense request",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/defense-requests/{id}": {
            "get": {
                "tags": ["DefenseRequests"],
                "summary": "Get defense request detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["DefenseRequests"],
                "summary": "Remove a defense request",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Removed"}, "409": {"description": "Completed defenses cannot be removed"}}
            }
        },
        "/defense-requests/{id}/status": {
            "patch": {
                "tags": ["DefenseRequests"],
                "summary": "Move a request along its workflow",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Invalid transition or schedule conflict"},
                    "422": {"description": "Missing payload or invalid panel"}
                }
            }
        },
        "/defense-requests/bulk-status": {
            "post": {
                "tags": ["DefenseRequests"],
                "summary": "Apply one transition to many requests",
                "responses": {"200": {"description": "Per-item outcomes"}}
            }
        },
        "/defense-requests/bulk-approve": {
            "post": {
                "tags": ["DefenseRequests"],
                "summary": "Approve many requests",
                "responses": {"200": {"description": "Per-item outcomes"}}
            }
        },
        "/defense-requests/bulk-reject": {
            "post": {
                "tags": ["DefenseRequests"],
                "summary": "Reject many requests",
                "responses": {"200": {"description": "Per-item outcomes"}}
            }
        },
        "/defense-requests/bulk-retrieve": {
            "post": {
                "tags": ["DefenseRequests"],
                "summary": "Return many requests to the submitted state",
                "responses": {"200": {"description": "Per-item outcomes"}}
            }
        },
        "/defense-requests/bulk-remove": {
            "post": {
                "tags": ["DefenseRequests"],
                "summary": "Remove many requests",
                "responses": {"200": {"description": "Per-item outcomes"}}
            }
        },
        "/coordinator/schedule/check-conflicts": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Check a proposed window for conflicts",
                "responses": {"200": {"description": "Conflict report"}}
            }
        },
        "/coordinator/schedule/available-panelists": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List panelists free during a window",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "start_time", "in": "query", "required": true, "type": "string"},
                    {"name": "end_time", "in": "query", "required": true, "type": "string"},
                    {"name": "chair_only", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/coordinator/schedule/calendar": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List scheduled defenses in a date range",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/defense/{id}/assign-panels": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Assign the examining panel",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid panel composition"}}
            }
        },
        "/defense/{id}/schedule": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Schedule a defense",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Schedule conflict"}}
            }
        },
        "/defense/{id}/reschedule": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Move a scheduled defense to a new window",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Schedule conflict"}}
            }
        },
        "/panelists": {
            "get": {
                "tags": ["Panelists"],
                "summary": "List panelists",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Panelists"],
                "summary": "Register a panelist",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/honoraria": {
            "get": {
                "tags": ["Honoraria"],
                "summary": "List honorarium records",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/honoraria/{id}/status": {
            "patch": {
                "tags": ["Honoraria"],
                "summary": "Update a record's payment status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Status can only move forward"}}
            }
        },
        "/honoraria/export": {
            "get": {
                "tags": ["Honoraria"],
                "summary": "Export honorarium records",
                "responses": {"200": {"description": "CSV or PDF payload"}}
            }
        },
        "/documents/defense/{id}/schedule-notice": {
            "post": {
                "tags": ["Documents"],
                "summary": "Generate the defense schedule notice",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Signed download link"}}
            }
        },
        "/documents/download": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a generated document",
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF payload"}, "401": {"description": "Invalid or expired token"}}
            }
        }
    },
    "definitions": {
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
