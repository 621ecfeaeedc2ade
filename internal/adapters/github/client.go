package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okcodes/github-assets-to-s3/internal/mirror"
	"github.com/okcodes/github-assets-to-s3/internal/model"
)

const (
	// DefaultBaseURL is the public GitHub REST API, used when no base URL is given.
	DefaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// Client talks to the GitHub REST API.
type Client struct {
	baseURL string
	token   string

	// httpClient serves JSON calls; downloadClient has no overall timeout
	// because asset bodies are streamed for as long as the upload takes.
	httpClient     *http.Client
	downloadClient *http.Client
}

// NewClient creates a new GitHub API client.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		downloadClient: &http.Client{},
	}
}

// GetReleaseByTag returns the published release tagged tag.
func (c *Client) GetReleaseByTag(ctx context.Context, repo model.Repository, tag string) (model.Release, error) {
	var release releaseResponse
	path := fmt.Sprintf("%s/releases/tags/%s", repoPath(repo), url.PathEscape(tag))
	if _, err := c.getJSON(ctx, path, &release); err != nil {
		return model.Release{}, c.toClientError(err, fmt.Sprintf("failed to get release by tag %q", tag))
	}
	return release.toModel(), nil
}

// ListReleases returns one page of releases, drafts included.
func (c *Client) ListReleases(ctx context.Context, repo model.Repository, page, perPage int) ([]model.Release, mirror.Page, error) {
	var releases []releaseResponse
	path := fmt.Sprintf("%s/releases?per_page=%d&page=%d", repoPath(repo), perPage, page)
	header, err := c.getJSON(ctx, path, &releases)
	if err != nil {
		return nil, mirror.Page{}, c.toClientError(err, fmt.Sprintf("failed to list releases page %d", page))
	}

	out := make([]model.Release, 0, len(releases))
	for _, r := range releases {
		out = append(out, r.toModel())
	}
	return out, mirror.Page{HasNext: hasNextPage(header)}, nil
}

// GetRelease returns a release by id.
func (c *Client) GetRelease(ctx context.Context, repo model.Repository, releaseID int64) (model.Release, error) {
	var release releaseResponse
	path := fmt.Sprintf("%s/releases/%d", repoPath(repo), releaseID)
	if _, err := c.getJSON(ctx, path, &release); err != nil {
		return model.Release{}, c.toClientError(err, fmt.Sprintf("failed to get release %d", releaseID))
	}
	return release.toModel(), nil
}

// ListReleaseAssets returns one page of the assets of a release.
func (c *Client) ListReleaseAssets(ctx context.Context, repo model.Repository, releaseID int64, page, perPage int) ([]model.ReleaseAsset, mirror.Page, error) {
	var assets []assetResponse
	path := fmt.Sprintf("%s/releases/%d/assets?per_page=%d&page=%d", repoPath(repo), releaseID, perPage, page)
	header, err := c.getJSON(ctx, path, &assets)
	if err != nil {
		return nil, mirror.Page{}, c.toClientError(err, fmt.Sprintf("failed to list assets of release %d page %d", releaseID, page))
	}

	out := make([]model.ReleaseAsset, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.toModel())
	}
	return out, mirror.Page{HasNext: hasNextPage(header)}, nil
}

// DownloadAsset opens the binary content of an asset. The URL is built from
// the asset id; browser_download_url does not serve authenticated streams.
// GitHub answers with a redirect to a signed URL, which the client follows
// without forwarding the token.
func (c *Client) DownloadAsset(ctx context.Context, repo model.Repository, assetID int64) (mirror.Download, error) {
	path := fmt.Sprintf("%s/releases/assets/%d", repoPath(repo), assetID)
	resp, err := c.doRequest(ctx, c.downloadClient, http.MethodGet, path, nil, map[string]string{
		"Accept": "application/octet-stream",
	})
	if err != nil {
		return mirror.Download{}, c.toClientError(err, fmt.Sprintf("failed to download asset %d", assetID))
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return mirror.Download{}, c.toClientError(readAPIError(resp, "asset download failed"), fmt.Sprintf("failed to download asset %d", assetID))
	}

	// Caller must close this body
	return mirror.Download{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

// UpdateRelease edits the description of a release.
func (c *Client) UpdateRelease(ctx context.Context, repo model.Repository, releaseID int64, update mirror.ReleaseUpdate) error {
	body, err := json.Marshal(updateReleaseRequest{TagName: update.TagName, Body: update.Body})
	if err != nil {
		return c.toClientError(err, "failed to encode release update")
	}

	path := fmt.Sprintf("%s/releases/%d", repoPath(repo), releaseID)
	resp, err := c.doRequest(ctx, c.httpClient, http.MethodPatch, path, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return c.toClientError(err, fmt.Sprintf("failed to update release %d", releaseID))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.toClientError(readAPIError(resp, "update release failed"), fmt.Sprintf("failed to update release %d", releaseID))
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, client *http.Client, method string, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	// Set optional headers
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	slog.DebugContext(ctx, "github request", "method", method, "path", path)
	return client.Do(req)
}

// getJSON decodes a 200 response into out and returns its headers.
func (c *Client) getJSON(ctx context.Context, path string, out any) (http.Header, error) {
	resp, err := c.doRequest(ctx, c.httpClient, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp, "request failed")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.Header, nil
}

// readAPIError builds an apiError, preferring the message GitHub sent.
func readAPIError(resp *http.Response, fallback string) error {
	msg := fallback
	var payload errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &apiError{StatusCode: resp.StatusCode, Message: msg}
}

func hasNextPage(h http.Header) bool {
	return strings.Contains(h.Get("Link"), `rel="next"`)
}

func repoPath(repo model.Repository) string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
}

// toClientError wraps an internal error into a ClientError for external consumers.
func (c *Client) toClientError(err error, context string) error {
	if err == nil {
		return nil
	}
	return &ClientError{Message: context, Err: err}
}
