package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Sports Academy Registration API",
        "description": "Schedules, enrollments and administration for the sports academy, mirrored to the remote ledger.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Schedules",
            "description": "Public weekly schedule"
        },
        {
            "name": "Enrollments",
            "description": "Registration workflow"
        },
        {
            "name": "Students",
            "description": "Family self-service"
        },
        {
            "name": "Admin",
            "description": "Back office"
        },
        {
            "name": "Cache",
            "description": "Response cache maintenance"
        }
    ],
    "paths": {
        "/schedules": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "List available schedule slots",
                "parameters": [
                    {
                        "in": "query",
                        "name": "birthYear",
                        "type": "integer",
                        "required": false,
                        "description": "Only slots accepting this birth year"
                    },
                    {
                        "in": "query",
                        "name": "forceRefresh",
                        "type": "boolean",
                        "required": false,
                        "description": "Skip the cached copy"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid birth year",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Database and ledger unavailable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/enrollments": {
            "post": {
                "tags": [
                    "Enrollments"
                ],
                "summary": "Enroll a student in one or more schedule slots",
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Student and selected slots"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Account inactive",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Duplicate enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Ledger rejected the enrollment",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "504": {
                        "description": "Ledger timed out",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/enrollments/{operationCode}": {
            "get": {
                "tags": [
                    "Enrollments"
                ],
                "summary": "Look up enrollments by operation code",
                "parameters": [
                    {
                        "in": "path",
                        "name": "operationCode",
                        "type": "string",
                        "required": true,
                        "description": "Operation code"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown operation code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/students/{nationalId}/enrollments": {
            "get": {
                "tags": [
                    "Students"
                ],
                "summary": "List the active enrollments of a student",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    },
                    {
                        "in": "query",
                        "name": "forceRefresh",
                        "type": "boolean",
                        "required": false,
                        "description": "Skip the cached copy"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid national ID",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "503": {
                        "description": "Unavailable",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/students/{nationalId}/consultation": {
            "get": {
                "tags": [
                    "Students"
                ],
                "summary": "Consolidated student profile",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    },
                    {
                        "in": "query",
                        "name": "forceRefresh",
                        "type": "boolean",
                        "required": false,
                        "description": "Skip the cached copy"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Account inactive",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Student not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/students/{nationalId}/receipt": {
            "post": {
                "tags": [
                    "Students"
                ],
                "summary": "Upload a payment receipt image",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Receipt as a base64 data URI"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid receipt",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Ledger rejected the upload",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/admin/students/{nationalId}/payment/confirm": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Confirm the enrollment fee of a student",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "Payment details"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Payment already confirmed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/students/{nationalId}/payment/reject": {
            "put": {
                "tags": [
                    "Admin"
                ],
                "summary": "Reject the payment and cancel open enrollments",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/students/{nationalId}/deactivate": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Deactivate a student account",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Already inactive",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/students/{nationalId}/reactivate": {
            "post": {
                "tags": [
                    "Admin"
                ],
                "summary": "Reactivate a student account",
                "parameters": [
                    {
                        "in": "path",
                        "name": "nationalId",
                        "type": "string",
                        "required": true,
                        "description": "National ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Already active",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/rosters": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "List enrolled students",
                "parameters": [
                    {
                        "in": "query",
                        "name": "day",
                        "type": "string",
                        "required": false,
                        "description": "Weekday"
                    },
                    {
                        "in": "query",
                        "name": "sport",
                        "type": "string",
                        "required": false,
                        "description": "Sport name contains"
                    },
                    {
                        "in": "query",
                        "name": "forceRefresh",
                        "type": "boolean",
                        "required": false,
                        "description": "Skip the cached copy"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/admin/rosters/export": {
            "get": {
                "tags": [
                    "Admin"
                ],
                "summary": "Download the roster as CSV or PDF",
                "parameters": [
                    {
                        "in": "query",
                        "name": "day",
                        "type": "string",
                        "required": false,
                        "description": "Weekday"
                    },
                    {
                        "in": "query",
                        "name": "sport",
                        "type": "string",
                        "required": false,
                        "description": "Sport name contains"
                    },
                    {
                        "in": "query",
                        "name": "format",
                        "type": "string",
                        "required": false,
                        "description": "csv (default) or pdf"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Unsupported format",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/cache/clear": {
            "post": {
                "tags": [
                    "Cache"
                ],
                "summary": "Drop every cached response",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/cache/stats": {
            "get": {
                "tags": [
                    "Cache"
                ],
                "summary": "Cache hit rate and live keys",
                "parameters": [],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "data": {
                    "type": "object"
                },
                "error": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "details": {
                    "type": "object"
                },
                "meta": {
                    "type": "object"
                }
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
