package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/repo" string.
func ParseRepository(s string) (Repository, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("repository %q must follow the format \"owner/repo\"", s)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

// String returns the repository as "owner/repo".
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Release is a GitHub release, published or draft.
type Release struct {
	ID      int64
	TagName string
	Name    string
	Body    string
	HTMLURL string
	Draft   bool
}

// ReleaseAsset is one file attached to a release.
type ReleaseAsset struct {
	ID   int64
	Name string
	Size int64 // as reported by the listing, informational only
}

// Transfer records one asset that landed in object storage.
type Transfer struct {
	Asset     ReleaseAsset
	ObjectKey string
	Size      int64
}

// RunID represents a UUIDv7 run identifier used to correlate log lines.
type RunID string

// NewRunID generates a fresh UUIDv7 run identifier.
func NewRunID() (RunID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run-id: %w", err)
	}
	return RunID(id.String()), nil
}

// Validate checks that the RunID is a valid UUIDv7.
func (r RunID) Validate() error {
	if r == "" {
		return fmt.Errorf("run-id cannot be empty")
	}
	id, err := uuid.Parse(string(r))
	if err != nil {
		return fmt.Errorf("run-id must be a valid UUID: %w", err)
	}
	if id.Version() != uuid.Version(7) {
		return fmt.Errorf("run-id must be a UUIDv7, got v%d", id.Version())
	}
	return nil
}

// String returns the run ID as a string.
func (r RunID) String() string {
	return string(r)
}
