package exitcode

// Exit codes for the mirror CLI.
// Workflow steps can use these to decide whether a rerun makes sense.
const (
	// Success - every asset was transferred
	Success = 0

	// ConfigError - missing or invalid configuration
	// Don't retry: fix the config first
	ConfigError = 1

	// ResolutionError - the release tag matched no published or draft release
	// Don't retry: check the tag and the token's access to drafts
	ResolutionError = 2

	// APIError - GitHub returned an error (rate limit, auth, bad request)
	// Check logs, may need manual intervention
	APIError = 3

	// StorageError - failed to write to the S3 bucket
	// Retry with backoff
	StorageError = 4

	// ApplicationError - anything not covered above
	ApplicationError = 5
)
