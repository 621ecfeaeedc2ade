package github

import (
	"fmt"
	"net/http"

	"github.com/okcodes/github-assets-to-s3/internal/mirror"
)

// apiError represents an error from the GitHub API.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("github: %s (status %d)", e.Message, e.StatusCode)
}

// Is reports 404 responses as mirror.ErrNotFound.
func (e *apiError) Is(target error) bool {
	return target == mirror.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ClientError is returned by every Client method.
type ClientError struct {
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("github client: %s: %v", e.Message, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}
