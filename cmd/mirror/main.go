package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/okcodes/github-assets-to-s3/internal/adapters/github"
	"github.com/okcodes/github-assets-to-s3/internal/config"
	"github.com/okcodes/github-assets-to-s3/internal/exitcode"
	"github.com/okcodes/github-assets-to-s3/internal/mirror"
	"github.com/okcodes/github-assets-to-s3/internal/model"
	"github.com/okcodes/github-assets-to-s3/internal/storage"
)

func main() {
	// Configure the global logger; the level is set once config is loaded
	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level})))

	// Parse CLI flags
	releaseID := flag.String("release-id", "", "Numeric id of the release to mirror (overrides RELEASE_ID)")
	releaseTag := flag.String("release-tag", "", "Tag of the release to mirror (overrides RELEASE_TAG)")
	folder := flag.String("folder", "", "Folder inside the bucket (overrides S3_FOLDER)")
	runIDFlag := flag.String("run-id", "", "Run identifier (UUIDv7); generated when empty")
	flag.Parse()

	// Ensure environment variables are loaded
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load env vars", "error", err)
	}

	// Load configuration
	cfg, err := config.Load(config.Overrides{
		ReleaseID:  *releaseID,
		ReleaseTag: *releaseTag,
		Folder:     *folder,
	})
	if err != nil {
		slog.Error("failed to load config", "error", err)
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}
	level.Set(cfg.LogLevel)

	runID, err := resolveRunID(*runIDFlag)
	if err != nil {
		slog.Error("invalid run-id", "error", err)
		fmt.Fprintf(os.Stderr, "Usage: run-id must be a UUIDv7\n")
		os.Exit(exitcode.ConfigError)
	}

	// Create a cancellable context (for graceful shutdown)
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken)

	objectStorage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize object storage", "backend", cfg.S3Backend, "error", err)
		cancel()
		os.Exit(setupExitCode(err))
	}

	summary, closeSummary, err := openSummary(cfg.StepSummaryPath)
	if err != nil {
		slog.Error("failed to open step summary", "path", cfg.StepSummaryPath, "error", err)
		cancel()
		os.Exit(exitcode.ConfigError)
	}

	err = run(ctx, cfg, runID, client, objectStorage, summary, os.Stdout)
	if cerr := closeSummary(); cerr != nil && err == nil {
		err = fmt.Errorf("close step summary: %w", cerr)
	}
	if err != nil {
		slog.Error("mirror failed", "run_id", runID, "error", err)
		cancel()
		os.Exit(exitCodeFor(err))
	}

	slog.Info("shutdown complete", "run_id", runID)
}

// run mirrors the configured release. Workflow commands for non-fatal
// problems are written to out.
func run(ctx context.Context, cfg *config.Config, runID model.RunID, api mirror.ReleaseAPI, objectStorage mirror.ObjectStorage, summary io.Writer, out io.Writer) error {
	resolver := storage.NewURLResolver(cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3URLTemplate)

	svc := mirror.NewService(api, objectStorage, mirror.Options{
		Folder:        cfg.S3Folder,
		Concurrency:   cfg.TransferConcurrency,
		UpdateRelease: cfg.UpdateRelease,
		URLFor:        resolver.URL,
		Summary:       summary,
	})

	result, err := svc.Run(ctx, mirror.Request{
		Repo:      cfg.Repository,
		ReleaseID: cfg.ReleaseID,
		Tag:       cfg.ReleaseTag,
		RunID:     runID,
	})
	if err != nil {
		return err
	}

	if result.AnnotationErr != nil {
		fmt.Fprintf(out, "::warning::%s\n", workflowEscape(fmt.Sprintf("could not update the description of release %s: %v", result.Release.TagName, result.AnnotationErr)))
	}
	return nil
}

func resolveRunID(s string) (model.RunID, error) {
	if s == "" {
		return model.NewRunID()
	}
	runID := model.RunID(s)
	if err := runID.Validate(); err != nil {
		return "", err
	}
	return runID, nil
}

func newObjectStorage(ctx context.Context, cfg *config.Config) (mirror.ObjectStorage, error) {
	switch cfg.S3Backend {
	case config.BackendAWS:
		return storage.NewS3Client(ctx, storage.S3Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKeyID,
			SecretKey:    cfg.S3SecretAccessKey,
			Bucket:       cfg.S3Bucket,
			UsePathStyle: cfg.S3UsePathStyle,
		})
	default:
		host, secure, err := storage.ParseEndpoint(cfg.S3Endpoint)
		if err != nil {
			return nil, err
		}
		return storage.NewMinIOClient(ctx, storage.MinIOConfig{
			Endpoint:  host,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKeyID,
			SecretKey: cfg.S3SecretAccessKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    secure,
		})
	}
}

// openSummary returns the writer the run summary goes to. GitHub Actions
// expects the step summary file to be appended to.
func openSummary(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// exitCodeFor maps a run error to a process exit code.
func exitCodeFor(err error) int {
	var (
		missingVar *config.ErrMissingRequiredEnvVar
		invalid    *config.ErrInvalid
		notFound   *mirror.ReleaseNotFoundError
		clientErr  *github.ClientError
		storageErr *storage.Error
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &missingVar), errors.As(err, &invalid):
		return exitcode.ConfigError
	case errors.As(err, &notFound):
		return exitcode.ResolutionError
	case errors.As(err, &storageErr):
		return exitcode.StorageError
	case errors.As(err, &clientErr):
		return exitcode.APIError
	default:
		return exitcode.ApplicationError
	}
}

// setupExitCode is exitCodeFor for failures while wiring dependencies,
// where anything unclassified is a configuration problem.
func setupExitCode(err error) int {
	if code := exitCodeFor(err); code != exitcode.ApplicationError {
		return code
	}
	return exitcode.ConfigError
}

// workflowEscape encodes the characters GitHub workflow commands reserve.
func workflowEscape(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
