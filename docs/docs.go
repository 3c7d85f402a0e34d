// Package docs registers the console's OpenAPI description with swag so
// echo-swagger can serve it under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness probe: every session rehydrated and dependencies reachable",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Degraded"}}
            }
        },
        "/{family}/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in to a role family",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "family", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/envelope"}},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/{family}/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Log out of a role family",
                "parameters": [{"type": "string", "name": "family", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/{family}/auth/session": {
            "get": {
                "tags": ["auth"],
                "summary": "Current session of a role family",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "family", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/sessionView"}}}
            }
        },
        "/{family}/auth/me": {
            "patch": {
                "tags": ["auth"],
                "summary": "Update the logged-in profile",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "family", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/{family}/auth/permissions/{module}/{action}": {
            "get": {
                "tags": ["auth"],
                "summary": "Check a capability",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "family", "in": "path", "required": true},
                    {"type": "string", "name": "module", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/{family}/auth/navigation": {
            "get": {
                "tags": ["auth"],
                "summary": "Modules visible to the session",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "family", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/{family}/auth/events": {
            "get": {
                "tags": ["auth"],
                "summary": "Stream guard decisions",
                "produces": ["text/event-stream"],
                "parameters": [{"type": "string", "name": "family", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "identity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "role": {"type": "string", "enum": ["customer", "admin", "center_admin", "support_agent", "superadmin"]},
                "is_active": {"type": "boolean"},
                "capabilities": {"type": "object", "additionalProperties": {"type": "object", "additionalProperties": {"type": "boolean"}}}
            }
        },
        "envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {
                    "type": "object",
                    "properties": {
                        "token": {"type": "string"},
                        "user": {"$ref": "#/definitions/identity"}
                    }
                }
            }
        },
        "sessionView": {
            "type": "object",
            "properties": {
                "family": {"type": "string"},
                "hydrated": {"type": "boolean"},
                "is_authenticated": {"type": "boolean"},
                "user": {"$ref": "#/definitions/identity"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Laundry operations console",
	Description:      "Session and permission gate for the laundry role-family panels.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
