package mockbackend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/adjvalet/internal/edit"
)

// APIError is the JSON error body returned by the mock backend.
type APIError struct {
	Code        int               `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func badRequest(message, details string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message, Details: details}
}

func notFound(resource, id string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: resource + " not found", Details: id}
}

func conflict(message, details string) *APIError {
	return &APIError{Code: http.StatusConflict, Message: message, Details: details}
}

// editError maps errors from package edit to API errors.
func editError(err error) *APIError {
	switch {
	case errors.Is(err, edit.ErrNotFound):
		return &APIError{Code: http.StatusNotFound, Message: "Resource not found", Details: err.Error()}
	case errors.Is(err, edit.ErrDuplicateID):
		return conflict("Duplicate id", err.Error())
	default:
		return badRequest("Invalid request", err.Error())
	}
}

// HTTPErrorHandler renders every error as an APIError.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr  *APIError
		echoErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &echoErr):
		apiErr = &APIError{
			Code:    echoErr.Code,
			Message: http.StatusText(echoErr.Code),
			Details: fmt.Sprintf("%v", echoErr.Message),
		}
	default:
		apiErr = &APIError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
			Details: err.Error(),
		}
	}

	if apiErr.Code == http.StatusInternalServerError && !c.Echo().Debug {
		apiErr.Details = ""
	}

	if err := c.JSON(apiErr.Code, apiErr); err != nil {
		c.Logger().Error(err)
	}
}
