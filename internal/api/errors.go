package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a path cannot be resolved against the base URL.
	ErrInvalidURL = errors.New("Invalid URL.")

	// ErrInvalidResponse covers transport failures and anything that is not a
	// well-formed HTTP response.
	ErrInvalidResponse = errors.New("Invalid server response.")
)

// ServerError is a non-2xx response. Message is the server's {"error"} text
// when it sent one, otherwise "Server error (<status>)".
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// DecodingError means a 2xx body did not match the expected shape.
type DecodingError struct {
	Message string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("Failed to decode response: %s", e.Message)
}

// Message returns the text a screen shows for err: the server message for
// ServerError, the error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var srv *ServerError
	if errors.As(err, &srv) {
		return srv.Message
	}
	if errors.Is(err, ErrInvalidResponse) {
		return ErrInvalidResponse.Error()
	}
	if errors.Is(err, ErrInvalidURL) {
		return ErrInvalidURL.Error()
	}
	return err.Error()
}

type errorResponse struct {
	Error *string `json:"error"`
}
