package storage

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// JoinPaths strips leading and trailing slashes from every segment, drops
// the empty ones and joins the rest with a single slash. A "://" inside a
// segment is left alone, so a URL base can be joined with relative parts.
func JoinPaths(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "/")
}

// ObjectKey returns the destination key of an asset inside an optional folder.
func ObjectKey(folder, name string) string {
	return JoinPaths(folder, name)
}

// ObjectURLBase turns an endpoint like "https://s3.us-east-1.amazonaws.com"
// into the virtual-hosted base "https://bucket.s3.us-east-1.amazonaws.com".
// The endpoint must contain "://".
func ObjectURLBase(endpoint, bucket string) string {
	protocol, domain, _ := strings.Cut(endpoint, "://")
	return protocol + "://" + bucket + "." + domain
}

// ParseEndpoint splits an endpoint URL into the host MinIO expects and
// whether TLS is on.
func ParseEndpoint(endpoint string) (host string, secure bool, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("endpoint %q has unsupported scheme %q", endpoint, u.Scheme)
	}
}

var (
	bucketPlaceholder   = regexp.MustCompile(`(?i)\{BUCKET}`)
	regionPlaceholder   = regexp.MustCompile(`(?i)\{REGION}`)
	filenamePlaceholder = regexp.MustCompile(`(?i)\{FILENAME}`)
)

// URLResolver maps object keys to the public URLs they are served from.
type URLResolver struct {
	base     string
	template string
	bucket   string
	region   string
}

// NewURLResolver builds a resolver for a bucket. When template is set it
// wins over the endpoint-derived base; {BUCKET}, {REGION} and {FILENAME}
// are substituted case-insensitively.
func NewURLResolver(endpoint, region, bucket, template string) URLResolver {
	return URLResolver{
		base:     ObjectURLBase(endpoint, bucket),
		template: template,
		bucket:   bucket,
		region:   region,
	}
}

// URL returns the public URL of key.
func (r URLResolver) URL(key string) string {
	if r.template == "" {
		return JoinPaths(r.base, key)
	}
	u := bucketPlaceholder.ReplaceAllLiteralString(r.template, r.bucket)
	u = regionPlaceholder.ReplaceAllLiteralString(u, r.region)
	return filenamePlaceholder.ReplaceAllLiteralString(u, key)
}
