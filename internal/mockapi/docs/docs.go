// Package docs contains the swagger documentation for the mock API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Studyroom Mock API",
        "description": "Development stand-in for the study room chat backend.",
        "version": "1.0"
    },
    "host": "localhost:7480",
    "basePath": "/api",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/sign-in": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/auth/token-reissue": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange a refresh token for a new access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReissueRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/users/{userID}": {
            "get": {
                "tags": ["users"],
                "summary": "Get a user profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/chat-rooms": {
            "get": {
                "tags": ["rooms"],
                "summary": "List chat rooms",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/chat-rooms/{roomID}/messages": {
            "get": {
                "description": "Returns one page of history, oldest first. Pass the ID of the oldest message already loaded as cursor to page backwards.",
                "tags": ["messages"],
                "summary": "Page room history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "roomID", "in": "path", "required": true},
                    {"type": "string", "name": "cursor", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query", "default": 30, "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MessagesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["messages"],
                "summary": "Post a message",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "roomID", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PostMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Message"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/chat-rooms/{roomID}/ws": {
            "get": {
                "description": "WebSocket upgrade. Streams {\"type\":\"message\",\"data\":Message} frames and accepts {\"type\":\"send\",\"content\":\"...\"}.",
                "tags": ["messages"],
                "summary": "Live room feed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "roomID", "in": "path", "required": true},
                    {"type": "string", "format": "date-time", "name": "after", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "SignInRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ReissueRequest": {
            "type": "object",
            "properties": {
                "refreshToken": {"type": "string"}
            }
        },
        "TokenResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "nickname": {"type": "string"},
                "profileImageUrl": {"type": "string"}
            }
        },
        "Author": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "nickname": {"type": "string"},
                "profileImageUrl": {"type": "string"}
            }
        },
        "Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "authorId": {"type": "string"},
                "content": {"type": "string"},
                "sentAt": {"type": "string", "format": "date-time"},
                "author": {"$ref": "#/definitions/Author"}
            }
        },
        "MessagesResponse": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/Message"}},
                "nextCursor": {"type": "string"},
                "hasNext": {"type": "boolean"}
            }
        },
        "PostMessageRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "rooms": {"type": "integer"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:7480",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Studyroom Mock API",
	Description:      "Development stand-in for the study room chat backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
