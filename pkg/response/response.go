package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Success    bool                   `json:"success"`
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// sanitize controls production error shaping: field details are stripped and
// messages are replaced by a fixed per-code table so internal state never
// leaks to clients.
var sanitize bool

var genericMessages = map[string]string{
	"VALIDATION_ERROR":    "validation failed",
	"INVALID_CREDENTIALS": "invalid email or password",
	"UNAUTHENTICATED":     "authentication required",
	"UNAUTHORIZED":        "insufficient permissions",
	"ACCESS_DENIED":       "access denied",
	"ACCOUNT_INACTIVE":    "account is inactive",
	"NOT_FOUND":           "resource not found",
	"FILE_NOT_FOUND":      "file not found",
	"RATE_LIMIT_EXCEEDED": "too many requests",
	"INTERNAL_ERROR":      "an unexpected error occurred",
	"UPLOAD_ERROR":        "file upload failed",
}

// SetSanitize toggles production error sanitisation.
func SetSanitize(enabled bool) {
	sanitize = enabled
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Success: true, Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Message responds with HTTP 200 and a confirmation message only. Used by
// delete endpoints, which have no record left to return.
func Message(c *gin.Context, msg string) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, Envelope{Success: true, Message: msg})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if sanitize {
		clean := *appErr
		clean.Details = nil
		if msg, ok := genericMessages[clean.Code]; ok {
			clean.Message = msg
		}
		appErr = &clean
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Success: false, Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
