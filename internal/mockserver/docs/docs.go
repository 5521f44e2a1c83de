// Package docs registers the mock backend's OpenAPI document with swag.
// Keep it in step with the handler annotations in internal/mockserver.
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
        "/analyze": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analyze"],
                "summary": "Analyze the screen against a task",
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.AnalyzeRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AnalyzeResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/detail"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/detail"}}
                }
            }
        },
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Get the active session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SessionSnapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/detail"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Start a work session",
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.StartSessionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SessionSnapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/detail"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/detail"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "End the active session",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["push"],
                "summary": "Push feed of focus updates",
                "responses": {
                    "101": {"description": "Switching Protocols", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "detail": {
            "type": "object",
            "properties": {"detail": {"type": "string"}}
        },
        "models.AnalyzeRequest": {
            "type": "object",
            "properties": {"task_description": {"type": "string"}}
        },
        "models.AnalyzeResult": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["on_task", "off_task"]},
                "summary": {"type": "string"}
            }
        },
        "models.StartSessionRequest": {
            "type": "object",
            "properties": {
                "duration_minutes": {"type": "integer", "minimum": 1, "maximum": 480},
                "task_description": {"type": "string"}
            }
        },
        "models.SessionSnapshot": {
            "type": "object",
            "properties": {
                "ends_at": {"type": "string", "format": "date-time"},
                "last_state": {"type": "string", "enum": ["on_task", "off_task"]},
                "last_summary": {"type": "string"},
                "seconds_remaining": {"type": "integer"},
                "session_active": {"type": "boolean"},
                "task_description": {"type": "string"}
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
	Title:            "FocusAgent mock backend",
	Description:      "In-memory stand-in for the FocusAgent session and push API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
