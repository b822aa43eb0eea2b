package client

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody bounds how much of an error response is kept for the message.
const maxErrorBody = 4096

var (
	ErrMissingJobID = errors.New("job creation response has no job id")
)

// APIError is returned when the screening service answers with a non 2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("screening service returned status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("screening service returned status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
