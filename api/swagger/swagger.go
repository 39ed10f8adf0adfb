// Package swagger serves the OpenAPI document for the attendance API.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "QR Attendance API",
    "description": "School attendance tracking with QR scans, roster imports and reporting.",
    "version": "1.0"
  },
  "basePath": "/api/v1",
  "paths": {
    "/auth/login": {
      "post": {
        "tags": ["auth"],
        "summary": "Sign in with staff credentials",
        "parameters": [
          {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
        ],
        "responses": {"200": {"description": "token pair"}, "401": {"description": "invalid credentials"}}
      }
    },
    "/auth/refresh": {
      "post": {
        "tags": ["auth"],
        "summary": "Rotate a refresh token",
        "responses": {"200": {"description": "token pair"}, "401": {"description": "expired or revoked"}}
      }
    },
    "/attendance/scan": {
      "post": {
        "tags": ["attendance"],
        "summary": "Register a QR scan",
        "description": "Classifies the scan against the school day window. Returns a flat kiosk contract instead of the common envelope.",
        "parameters": [
          {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
        ],
        "responses": {
          "200": {"description": "attendance recorded"},
          "404": {"description": "unknown code"},
          "409": {"description": "already recorded today"},
          "422": {"description": "class day has ended"}
        }
      }
    },
    "/attendance/manual": {
      "post": {
        "tags": ["attendance"],
        "summary": "Record attendance manually",
        "security": [{"Bearer": []}],
        "responses": {"201": {"description": "attendance recorded"}}
      }
    },
    "/attendance/sweep": {
      "post": {
        "tags": ["attendance"],
        "summary": "Mark absent every student without a record for a day",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "sweep result"}}
      }
    },
    "/attendance/report": {
      "get": {
        "tags": ["attendance"],
        "summary": "List attendance records with a per-status summary",
        "security": [{"Bearer": []}],
        "parameters": [
          {"name": "date_from", "in": "query", "type": "string"},
          {"name": "date_to", "in": "query", "type": "string"},
          {"name": "grade_id", "in": "query", "type": "string"},
          {"name": "status", "in": "query", "type": "string", "enum": ["on_time", "late", "absent"]},
          {"name": "page", "in": "query", "type": "integer"},
          {"name": "page_size", "in": "query", "type": "integer"}
        ],
        "responses": {"200": {"description": "records, summary and pagination"}}
      }
    },
    "/attendance/report/export": {
      "get": {
        "tags": ["attendance"],
        "summary": "Download the attendance report",
        "security": [{"Bearer": []}],
        "parameters": [
          {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
        ],
        "responses": {"200": {"description": "file download"}}
      }
    },
    "/students": {
      "get": {
        "tags": ["students"],
        "summary": "List students",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "student page"}}
      },
      "post": {
        "tags": ["students"],
        "summary": "Register a student",
        "security": [{"Bearer": []}],
        "responses": {"201": {"description": "created"}, "409": {"description": "duplicate national id"}}
      }
    },
    "/students/{id}": {
      "get": {
        "tags": ["students"],
        "summary": "Load one student",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "student"}, "404": {"description": "not found"}}
      },
      "patch": {
        "tags": ["students"],
        "summary": "Update selected student fields",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "student"}}
      },
      "delete": {
        "tags": ["students"],
        "summary": "Delete a student",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "responses": {"204": {"description": "deleted"}}
      }
    },
    "/students/{id}/qr": {
      "get": {
        "tags": ["students"],
        "summary": "Download the student's QR credential as PNG",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "produces": ["image/png"],
        "responses": {"200": {"description": "png image"}}
      }
    },
    "/grades": {
      "get": {
        "tags": ["roster"],
        "summary": "List grades",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "grades"}}
      },
      "post": {
        "tags": ["roster"],
        "summary": "Create or reuse a grade",
        "security": [{"Bearer": []}],
        "responses": {"201": {"description": "grade"}}
      }
    },
    "/sections": {
      "get": {
        "tags": ["roster"],
        "summary": "List sections",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "grade_id", "in": "query", "type": "string"}],
        "responses": {"200": {"description": "sections"}}
      },
      "post": {
        "tags": ["roster"],
        "summary": "Create or reuse a section",
        "security": [{"Bearer": []}],
        "responses": {"201": {"description": "section"}}
      }
    },
    "/sections/bulk": {
      "post": {
        "tags": ["roster"],
        "summary": "Create every grade and section-name combination",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "processed count"}}
      }
    },
    "/guardians": {
      "get": {
        "tags": ["roster"],
        "summary": "List guardians",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "guardians"}}
      },
      "post": {
        "tags": ["roster"],
        "summary": "Register a guardian",
        "security": [{"Bearer": []}],
        "responses": {"201": {"description": "guardian"}}
      }
    },
    "/dashboard/stats": {
      "get": {
        "tags": ["dashboard"],
        "summary": "Headline counts plus today's attendance summary",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "dashboard aggregate"}}
      }
    },
    "/imports": {
      "get": {
        "tags": ["imports"],
        "summary": "List stored roster uploads with their statuses",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "uploads"}}
      },
      "post": {
        "tags": ["imports"],
        "summary": "Upload a roster and queue the import",
        "security": [{"Bearer": []}],
        "consumes": ["multipart/form-data"],
        "parameters": [
          {"name": "file", "in": "formData", "required": true, "type": "file"},
          {"name": "period", "in": "formData", "type": "integer"}
        ],
        "responses": {"202": {"description": "queued, poll the status endpoint"}}
      }
    },
    "/imports/{id}/status": {
      "get": {
        "tags": ["imports"],
        "summary": "Poll the progress of one import",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "responses": {"200": {"description": "import status"}, "404": {"description": "unknown upload"}}
      }
    },
    "/imports/{id}": {
      "delete": {
        "tags": ["imports"],
        "summary": "Delete a stored upload and its status",
        "security": [{"Bearer": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
        "responses": {"204": {"description": "deleted"}}
      }
    },
    "/imports/rollback": {
      "post": {
        "tags": ["imports"],
        "summary": "Remove placeholder students created by a past import",
        "security": [{"Bearer": []}],
        "responses": {"200": {"description": "rollback result"}}
      }
    }
  },
  "definitions": {
    "LoginRequest": {
      "type": "object",
      "required": ["email", "password"],
      "properties": {
        "email": {"type": "string"},
        "password": {"type": "string"}
      }
    },
    "ScanRequest": {
      "type": "object",
      "required": ["code"],
      "properties": {
        "code": {"type": "string"}
      }
    }
  },
  "securityDefinitions": {
    "Bearer": {
      "type": "apiKey",
      "name": "Authorization",
      "in": "header"
    }
  }
}`

type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, swaggerDoc{})
}
