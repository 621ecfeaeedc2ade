package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/okcodes/github-assets-to-s3/internal/model"
)

// Storage backends.
const (
	BackendMinIO = "minio"
	BackendAWS   = "aws"
)

// Config holds application configuration.
type Config struct {
	GitHubToken  string
	GitHubAPIURL string
	Repository   model.Repository

	// Exactly one of ReleaseID and ReleaseTag is set.
	ReleaseID  int64
	ReleaseTag string

	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Folder          string
	S3URLTemplate     string
	S3Backend         string
	S3UsePathStyle    bool

	UpdateRelease       bool
	TransferConcurrency int
	StepSummaryPath     string
	LogLevel            slog.Level
}

// Overrides carry command-line values that win over the environment.
type Overrides struct {
	ReleaseID  string
	ReleaseTag string
	Folder     string
}

type ErrMissingRequiredEnvVar struct {
	Name string
}

func (e *ErrMissingRequiredEnvVar) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Name)
}

// ErrInvalid reports a setting that is present but unusable.
type ErrInvalid struct {
	Name   string
	Reason string
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// Load reads configuration from environment variables, applies overrides
// and validates the result.
func Load(o Overrides) (*Config, error) {
	config := Config{
		GitHubAPIURL:  getEnv("GITHUB_API_URL", "https://api.github.com"),
		S3Folder:      os.Getenv("S3_FOLDER"),
		S3URLTemplate: os.Getenv("S3_URL_TEMPLATE"),
		S3Backend:     getEnv("S3_BACKEND", BackendMinIO),
		// GitHub Actions points this at the job summary file
		StepSummaryPath: os.Getenv("GITHUB_STEP_SUMMARY"),
	}

	required := []struct {
		name string
		dst  *string
	}{
		{"GITHUB_TOKEN", &config.GitHubToken},
		{"S3_ENDPOINT", &config.S3Endpoint},
		{"S3_REGION", &config.S3Region},
		{"S3_BUCKET", &config.S3Bucket},
		{"S3_ACCESS_KEY_ID", &config.S3AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &config.S3SecretAccessKey},
	}
	for _, r := range required {
		*r.dst = strings.TrimSpace(os.Getenv(r.name))
		if *r.dst == "" {
			return nil, &ErrMissingRequiredEnvVar{Name: r.name}
		}
	}

	repository := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY"))
	if repository == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: "GITHUB_REPOSITORY"}
	}
	repo, err := model.ParseRepository(repository)
	if err != nil {
		return nil, &ErrInvalid{Name: "GITHUB_REPOSITORY", Reason: err.Error()}
	}
	config.Repository = repo

	if !strings.HasPrefix(config.S3Endpoint, "https://") {
		return nil, &ErrInvalid{Name: "S3_ENDPOINT", Reason: "must start with https://"}
	}
	if config.S3Backend != BackendMinIO && config.S3Backend != BackendAWS {
		return nil, &ErrInvalid{Name: "S3_BACKEND", Reason: fmt.Sprintf("must be %q or %q", BackendMinIO, BackendAWS)}
	}

	releaseID, releaseTag := os.Getenv("RELEASE_ID"), os.Getenv("RELEASE_TAG")
	if o.ReleaseID != "" || o.ReleaseTag != "" {
		releaseID, releaseTag = o.ReleaseID, o.ReleaseTag
	}
	if err := config.setRelease(strings.TrimSpace(releaseID), strings.TrimSpace(releaseTag)); err != nil {
		return nil, err
	}
	if o.Folder != "" {
		config.S3Folder = o.Folder
	}

	if config.S3UsePathStyle, err = getBool("S3_USE_PATH_STYLE", false); err != nil {
		return nil, err
	}
	if config.UpdateRelease, err = getBool("UPDATE_RELEASE", true); err != nil {
		return nil, err
	}
	if v := os.Getenv("TRANSFER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &ErrInvalid{Name: "TRANSFER_CONCURRENCY", Reason: "must be a non-negative integer"}
		}
		config.TransferConcurrency = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := config.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, &ErrInvalid{Name: "LOG_LEVEL", Reason: err.Error()}
		}
	}

	return &config, nil
}

func (c *Config) setRelease(id, tag string) error {
	switch {
	case id == "" && tag == "":
		return &ErrInvalid{Name: "release", Reason: "either a release id or a release tag is required"}
	case id != "" && tag != "":
		return &ErrInvalid{Name: "release", Reason: "provide a release id or a release tag, not both"}
	case tag != "":
		c.ReleaseTag = tag
		return nil
	}

	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return &ErrInvalid{Name: "release id", Reason: fmt.Sprintf("%q is not a positive number", id)}
	}
	c.ReleaseID = n
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &ErrInvalid{Name: key, Reason: "must be a boolean"}
	}
	return b, nil
}
