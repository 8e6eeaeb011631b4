// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"fieldservice_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the response format shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Source  string `json:"source,omitempty"`
}

// OK sends a 200 OK envelope with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

// OKWithSource sends a 200 OK envelope tagged with where the payload came from.
func OKWithSource(c *gin.Context, payload any, source string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload, Source: source})
}

// JSON sends a success envelope with an explicit status code.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, Envelope{Success: true, Data: payload})
}

// Error sends a failure envelope with the given status code and message.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, Envelope{Success: false, Error: message, Details: details})
}

// HandleError maps domain errors to HTTP responses.
// If the error carries a typed *apperr.Error, its Kind determines the status
// code. Otherwise it is treated as an internal failure.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	return HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData is HandleError for listing endpoints: the failure
// envelope still carries an empty but well-formed payload.
func HandleErrorWithData(c *gin.Context, err error, empty any) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		message := domainErr.Message
		if domainErr.Kind == apperr.KindStore {
			message = "failed to query records"
		}
		c.JSON(domainErr.HTTPStatus(), Envelope{
			Success: false,
			Data:    empty,
			Error:   message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusInternalServerError, Envelope{Success: false, Data: empty, Error: "internal server error"})
	return true
}
