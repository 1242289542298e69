package rest

import (
	"errors"
)

// userMessager is implemented by errors that carry text meant for display.
type userMessager interface {
	UserMessage() string
}

// ErrorMessage returns the text to show a user for err: the API's message
// field, a validation message, or fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
