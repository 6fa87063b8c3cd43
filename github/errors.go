package github

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthentication matches APIErrors for 401 and 403 responses.
var ErrAuthentication = errors.New("github: authentication failed")

// APIError is returned for every non-2xx response.  Callers are expected not to retry.
type APIError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %s: %s", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	if target == ErrAuthentication {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
