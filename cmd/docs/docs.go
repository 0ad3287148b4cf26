// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/schoolflow_backend/main.go -o cmd/docs
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
        "/notifications": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Includes notifications addressed to the caller's role, newest first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "notifications"
                ],
                "summary": "List the caller's notifications",
                "parameters": [
                    {
                        "description": "Only unread notifications",
                        "name": "unread",
                        "in": "query",
                        "type": "boolean"
                    },
                    {
                        "description": "Maximum number of notifications (max 200)",
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListNotificationsResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid query",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "notifications"
                ],
                "summary": "Mark a notification as read",
                "parameters": [
                    {
                        "description": "Notification ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.NotificationResponse"
                        }
                    },
                    "404": {
                        "description": "Notification not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/revenue/{session}/{term}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "revenue"
                ],
                "summary": "Get the revenue of a period",
                "parameters": [
                    {
                        "description": "Academic session with a dash, e.g. 2023-2024",
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Term, e.g. First Term",
                        "name": "term",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PeriodRevenue"
                        }
                    },
                    "400": {
                        "description": "Invalid period",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "No revenue recorded",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Inserts or replaces the revenue figure. Bursar or admin only.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "revenue"
                ],
                "summary": "Record the revenue of a period",
                "parameters": [
                    {
                        "description": "Academic session with a dash, e.g. 2023-2024",
                        "name": "session",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Term, e.g. First Term",
                        "name": "term",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Amount",
                        "name": "revenue",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.RecordRevenueRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PeriodRevenue"
                        }
                    },
                    "400": {
                        "description": "Invalid period or amount",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Role may not record revenue",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Creates an expenditure request, financial report or exam report in draft, or straight in review when submit is set",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Create a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "expenditure",
                            "financial-report",
                            "exam-report"
                        ]
                    },
                    {
                        "description": "Period and payload",
                        "name": "entity",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.CreateWorkflowRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid input or payload validation error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Role may not create this kind",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to create entity",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Lists entities of a kind visible to the caller, newest first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "List workflow entities",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Owner id",
                        "name": "owner",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "description": "Academic session, e.g. 2023/2024",
                        "name": "session",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "description": "Term, e.g. First Term",
                        "name": "term",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "description": "Statuses, repeatable or comma separated",
                        "name": "status",
                        "in": "query",
                        "type": "array",
                        "items": {
                            "type": "string"
                        },
                        "collectionFormat": "multi"
                    },
                    {
                        "description": "Page size (max 500)",
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "description": "Token from the previous page",
                        "name": "nextToken",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListWorkflowResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid query",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to list entities",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/aggregate": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Total approved, total pending and available funds for expenditures of a period",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "aggregation"
                ],
                "summary": "Funds summary of a period",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "expenditure"
                        ]
                    },
                    {
                        "description": "Academic session, e.g. 2023/2024",
                        "name": "session",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Term",
                        "name": "term",
                        "in": "query",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Revenue override; defaults to the recorded revenue",
                        "name": "revenue",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.FundsSummary"
                        }
                    },
                    "400": {
                        "description": "Invalid period or revenue",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Role may not view the summary",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Kind has no aggregate",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/export": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Exports the filtered listing as an XLSX workbook",
                "produces": [
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Export workflow entities",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Owner id",
                        "name": "owner",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "description": "Academic session",
                        "name": "session",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "description": "Term",
                        "name": "term",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "description": "Statuses",
                        "name": "status",
                        "in": "query",
                        "type": "array",
                        "items": {
                            "type": "string"
                        },
                        "collectionFormat": "multi"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Invalid query",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "500": {
                        "description": "Failed to export entities",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Retrieves one entity; the ETag header carries its version",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Get a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Entity belongs to another user",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Entity not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "put": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Replaces the payload of an entity in draft, pending or rejected. Owner only.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Edit a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Expected version",
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    },
                    {
                        "description": "New payload",
                        "name": "entity",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.EditWorkflowRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Not the owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Entity not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Not editable or version conflict",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Deletes an entity in draft, pending or rejected. Owner only.",
                "tags": [
                    "workflow"
                ],
                "summary": "Delete a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Expected version",
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "403": {
                        "description": "Not the owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Entity not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Not deletable or version conflict",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}/aggregate": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Summary of the expenditure's period plus the sufficiency of its amount",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "aggregation"
                ],
                "summary": "Funds summary for one expenditure",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "expenditure"
                        ]
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Revenue override; defaults to the recorded revenue",
                        "name": "revenue",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.EntityAggregate"
                        }
                    },
                    "400": {
                        "description": "Invalid revenue",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Entity belongs to another user",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Entity not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}/approve": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Approve a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Expected version",
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    },
                    {
                        "description": "Optional comments",
                        "name": "body",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/dto.TransitionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "403": {
                        "description": "Role may not review, or reviewing own entity",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Invalid transition or version conflict",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}/complete": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Complete an approved expenditure",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "enum": [
                            "expenditure"
                        ]
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Expected version",
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    },
                    {
                        "description": "Optional comments",
                        "name": "body",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/dto.TransitionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "403": {
                        "description": "Role may not complete",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Invalid transition or version conflict",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}/history": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "List the transition history of a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListHistoryResponse"
                        }
                    },
                    "403": {
                        "description": "Entity belongs to another user",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "404": {
                        "description": "Entity not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}/reject": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "A non-blank reason is required",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Reject a workflow entity",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Expected version",
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    },
                    {
                        "description": "Reason and optional comments",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.TransitionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "400": {
                        "description": "Missing reason",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Role may not review, or reviewing own entity",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Invalid transition or version conflict",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/workflow/{kind}/{id}/submit": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Moves a draft or rejected entity to pending, optionally replacing its payload. Owner only.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "workflow"
                ],
                "summary": "Submit a workflow entity for review",
                "parameters": [
                    {
                        "description": "Entity kind",
                        "name": "kind",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Entity ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Expected version",
                        "name": "If-Match",
                        "in": "header",
                        "type": "string"
                    },
                    {
                        "description": "Optional replacement payload",
                        "name": "body",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/dto.TransitionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.WorkflowEntityResponse"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "403": {
                        "description": "Not the owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    },
                    "409": {
                        "description": "Invalid transition or version conflict",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.EntityAggregate": {
            "type": "object",
            "properties": {
                "period": {
                    "$ref": "#/definitions/domain.Period"
                },
                "revenue": {
                    "type": "string"
                },
                "revenueRecorded": {
                    "type": "boolean"
                },
                "totalApproved": {
                    "type": "string"
                },
                "totalPending": {
                    "type": "string"
                },
                "availableFunds": {
                    "type": "string"
                },
                "entityId": {
                    "type": "string"
                },
                "requestAmount": {
                    "type": "string"
                },
                "sufficiency": {
                    "$ref": "#/definitions/domain.Sufficiency"
                }
            }
        },
        "domain.FundsSummary": {
            "type": "object",
            "properties": {
                "period": {
                    "$ref": "#/definitions/domain.Period"
                },
                "revenue": {
                    "type": "string"
                },
                "revenueRecorded": {
                    "type": "boolean"
                },
                "totalApproved": {
                    "type": "string"
                },
                "totalPending": {
                    "type": "string"
                },
                "availableFunds": {
                    "type": "string"
                }
            }
        },
        "domain.Period": {
            "type": "object",
            "properties": {
                "academicSession": {
                    "type": "string"
                },
                "term": {
                    "type": "string"
                }
            }
        },
        "domain.PeriodRevenue": {
            "type": "object",
            "properties": {
                "period": {
                    "$ref": "#/definitions/domain.Period"
                },
                "amount": {
                    "type": "string"
                },
                "recordedBy": {
                    "type": "string"
                },
                "recordedAt": {
                    "type": "string"
                }
            }
        },
        "domain.Sufficiency": {
            "type": "object",
            "properties": {
                "sufficient": {
                    "type": "boolean"
                },
                "shortfall": {
                    "type": "string"
                }
            }
        },
        "domain.TransitionRecord": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "entityId": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "action": {
                    "type": "string"
                },
                "fromStatus": {
                    "type": "string"
                },
                "toStatus": {
                    "type": "string"
                },
                "actorId": {
                    "type": "string"
                },
                "actorName": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                },
                "occurredAt": {
                    "type": "string"
                }
            }
        },
        "dto.CreateWorkflowRequest": {
            "type": "object",
            "properties": {
                "period": {
                    "$ref": "#/definitions/domain.Period"
                },
                "payload": {
                    "type": "object"
                },
                "submit": {
                    "type": "boolean"
                }
            }
        },
        "dto.EditWorkflowRequest": {
            "type": "object",
            "properties": {
                "payload": {
                    "type": "object"
                },
                "expectedVersion": {
                    "type": "integer"
                }
            }
        },
        "dto.ListHistoryResponse": {
            "type": "object",
            "properties": {
                "entityId": {
                    "type": "string"
                },
                "records": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TransitionRecord"
                    }
                }
            }
        },
        "dto.ListNotificationsResponse": {
            "type": "object",
            "properties": {
                "notifications": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.NotificationResponse"
                    }
                }
            }
        },
        "dto.ListWorkflowResponse": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.WorkflowEntityResponse"
                    }
                },
                "nextToken": {
                    "type": "string"
                }
            }
        },
        "dto.NotificationResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "recipientId": {
                    "type": "string"
                },
                "template": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "entityId": {
                    "type": "string"
                },
                "fromStatus": {
                    "type": "string"
                },
                "toStatus": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "readAt": {
                    "type": "string"
                },
                "read": {
                    "type": "boolean"
                }
            }
        },
        "dto.RecordRevenueRequest": {
            "type": "object",
            "properties": {
                "amount": {
                    "type": "string"
                }
            }
        },
        "dto.TransitionRequest": {
            "type": "object",
            "properties": {
                "payload": {
                    "type": "object"
                },
                "comments": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "expectedVersion": {
                    "type": "integer"
                }
            }
        },
        "dto.WorkflowEntityResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "ownerId": {
                    "type": "string"
                },
                "ownerName": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "draft",
                        "pending",
                        "approved",
                        "rejected",
                        "completed"
                    ]
                },
                "payload": {
                    "type": "object"
                },
                "period": {
                    "$ref": "#/definitions/domain.Period"
                },
                "submittedAt": {
                    "type": "string"
                },
                "reviewedAt": {
                    "type": "string"
                },
                "completedAt": {
                    "type": "string"
                },
                "reviewerId": {
                    "type": "string"
                },
                "reviewerName": {
                    "type": "string"
                },
                "reviewComments": {
                    "type": "string"
                },
                "rejectionReason": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "createdBy": {
                    "type": "string"
                },
                "lastUpdatedAt": {
                    "type": "string"
                },
                "lastUpdatedBy": {
                    "type": "string"
                },
                "version": {
                    "type": "integer"
                },
                "netBalance": {
                    "type": "string"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [
        {
            "BearerAuth": []
        }
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "School Workflow API",
	Description:      "Approval workflows for school expenditures, financial reports and exam reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
