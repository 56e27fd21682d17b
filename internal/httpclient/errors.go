package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthentication marks a terminal authentication failure: the request was
// retried once after a refresh (or refresh itself failed) and still came back
// unauthorized. Consumers treat it as "force logout and return to login".
var ErrAuthentication = errors.New("authentication failed")

// APIError is a non-2xx response decoded from the backend's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d [%s]: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsValidation reports whether err is a backend 400, surfaced inline on forms
// and never retried.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
