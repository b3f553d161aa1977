package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PlayPulse API",
        "description": "Multi-tenant backend for sports institutes: programs, enrollments, schedules, attendance, chat and events.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Signup, login, password reset and profile"},
        {"name": "Owner", "description": "Institute, programs, coaches, enrollments and events"},
        {"name": "Parent", "description": "Discovery, enrollment, payment and tracking"},
        {"name": "Coach", "description": "Schedules, attendance, progress and materials"},
        {"name": "Chat", "description": "Parent and coach messaging"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {
                "summary": "Readiness probe",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is down"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "responses": {
                    "200": {"description": "Token and user", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/v1/parent/enroll": {
            "post": {
                "tags": ["Parent"],
                "summary": "Enroll a child in a program",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Pending enrollment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Program not found", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/v1/parent/payment": {
            "post": {
                "tags": ["Parent"],
                "summary": "Pay for an enrollment",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Approved enrollment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid token or amount mismatch", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "Not payable", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/v1/parent/calendar-events": {
            "get": {
                "tags": ["Parent"],
                "summary": "Upcoming sessions of enrolled programs",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Calendar events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/coach/attendance": {
            "post": {
                "tags": ["Coach"],
                "summary": "Record attendance",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already recorded for the day", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/api/v1/chat/ws": {
            "get": {
                "tags": ["Chat"],
                "summary": "Realtime chat socket",
                "parameters": [{"name": "access_token", "in": "query", "type": "string", "required": true}],
                "responses": {"101": {"description": "Switching protocols"}, "401": {"description": "Unauthorized"}}
            }
        }
    },
    "definitions": {
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
                "meta": {"type": "object"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"}
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
