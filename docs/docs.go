// Package docs registers the OpenAPI description of the checkout API with swag.
// Keep the template in step with the handler annotations.
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
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/v1/devices": {
            "post": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Issue a device token",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/session": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Restore the device session",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            },
            "delete": {
                "security": [{"DeviceToken": []}],
                "tags": ["session"],
                "summary": "Sign out",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/session/login": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Sign in",
                "responses": {
                    "200": {"description": "OK"},
                    "202": {"description": "Second factor required"},
                    "401": {"description": "Unauthorized"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/session/register": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Create an account and sign in",
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/checkouts": {
            "post": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["checkouts"],
                "summary": "Start a checkout",
                "parameters": [
                    {"type": "string", "name": "service", "in": "query"},
                    {"type": "string", "name": "serviceSlug", "in": "query"},
                    {"type": "string", "name": "package", "in": "query"},
                    {"type": "string", "name": "packagePrice", "in": "query"},
                    {"type": "string", "name": "addons", "in": "query"}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/checkouts/{id}": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["checkouts"],
                "summary": "Get a checkout",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/checkouts/{id}/authenticate": {
            "post": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["checkouts"],
                "summary": "Continue a checkout after signing in",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/checkouts/{id}/orders": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkouts"],
                "summary": "Place the order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"},
                    "502": {"description": "Bad Gateway"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/v1/checkouts/{id}/bank-transfer": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkouts"],
                "summary": "Submit bank transfer proof",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/v1/orders/{id}": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/admin/checkouts/{id}": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Inspect a checkout and its audit trail",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "securityDefinitions": {
        "DeviceToken": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Evanio Checkout API",
	Description:      "Device sessions, checkout flows and order placement in front of the Evanio API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
