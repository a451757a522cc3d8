package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PMB Registration API",
        "description": "New-student registration and re-enrollment administration",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Registrations", "description": "New-student registrations"},
        {"name": "ReEnrollments", "description": "Re-enrollment payments"}
    ],
    "paths": {
        "/registrations/options": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Catalogs for the registration form, narrowed to the caller's scope",
                "parameters": [
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "trackId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/quote": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Compute the fee breakdown for a selection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QuoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Selection outside scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List registrations",
                "parameters": [
                    {"name": "waveId", "in": "query", "type": "string"},
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "sortBy", "in": "query", "type": "string"},
                    {"name": "sortOrder", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Register a new applicant",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Sequence exhausted or number taken concurrently", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No wave for date or selection outside scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/{id}": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Registration detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Registrations"],
                "summary": "Edit a registration; number, date and wave are kept",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegistrationFields"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not credited on this registration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Registrations"],
                "summary": "Delete a registration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "412": {"description": "Registration has a re-enrollment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/{id}/re-enrollment": {
            "post": {
                "tags": ["ReEnrollments"],
                "summary": "Re-enroll a registration",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already re-enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/re-enrollments": {
            "get": {
                "tags": ["ReEnrollments"],
                "summary": "List re-enrollments",
                "parameters": [
                    {"name": "waveId", "in": "query", "type": "string"},
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/re-enrollments/{id}": {
            "delete": {
                "tags": ["ReEnrollments"],
                "summary": "Delete a re-enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        }
    },
    "definitions": {
        "Amount": {
            "description": "Rupiah amount as a number or a dot-grouped string such as \"1.500.000\"",
            "type": "string"
        },
        "QuoteRequest": {
            "type": "object",
            "properties": {
                "branchId": {"type": "string"},
                "trackId": {"type": "string"},
                "majorId": {"type": "string"},
                "feeId": {"type": "string"},
                "baseFee": {"$ref": "#/definitions/Amount"},
                "discountId": {"type": "string"},
                "discountAmount": {"$ref": "#/definitions/Amount"}
            }
        },
        "RegistrationFields": {
            "type": "object",
            "properties": {
                "applicantName": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "priorSchool": {"type": "string"},
                "gender": {"type": "string", "enum": ["L", "P"]},
                "branchId": {"type": "string"},
                "trackId": {"type": "string"},
                "majorId": {"type": "string"},
                "feeId": {"type": "string"},
                "discountId": {"type": "string"},
                "discountAmount": {"$ref": "#/definitions/Amount"},
                "presenters": {"type": "array", "items": {"type": "string"}},
                "paymentMethodId": {"type": "string"},
                "infoSource": {"type": "string"},
                "receiptNo": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["applicantName", "phone", "trackId", "majorId"]
        },
        "CreateRegistrationRequest": {
            "allOf": [
                {"$ref": "#/definitions/RegistrationFields"},
                {"type": "object", "properties": {"registeredOn": {"type": "string", "format": "date"}}}
            ]
        },
        "CreateReEnrollmentRequest": {
            "type": "object",
            "properties": {
                "gender": {"type": "string", "enum": ["L", "P"]},
                "shirtSize": {"type": "string"},
                "installment1": {"$ref": "#/definitions/Amount"},
                "installment1Date": {"type": "string", "format": "date"},
                "installment2": {"$ref": "#/definitions/Amount"},
                "installment2Date": {"type": "string", "format": "date"},
                "paymentMethodId": {"type": "string"},
                "presenters": {"type": "array", "items": {"type": "string"}}
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
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
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
