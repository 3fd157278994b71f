// Package storage contains the shared data model of the object storage client:
// bucket/object addressing, the object metadata resource, query string assembly
// and client configuration.
package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultHost is the public endpoint of the storage service.
const DefaultHost = "https://firebasestorage.googleapis.com"

const apiVersion = "v0"

// Reference identifies an object within a bucket.
//
// Object names follow the service's naming rules: almost any character is
// allowed, including slashes. Names are kept in their raw form and
// percent-encoded only when embedded in a URL.
type Reference struct {
	Bucket string
	Name   string
}

// ParseReference resolves a user-supplied locator into a Reference.
// Accepted forms:
//   - gs://bucket/path/to/object
//   - http(s)://{host}/v0/b/{bucket}/o/{percent-encoded-object-path}
func ParseReference(locator string) (Reference, error) {
	parsed, err := url.Parse(locator)
	if err != nil {
		return Reference{}, fmt.Errorf("parse locator: %w", err)
	}

	switch parsed.Scheme {
	case "gs":
		name := strings.TrimPrefix(parsed.Path, "/")
		if parsed.Host == "" {
			return Reference{}, fmt.Errorf("no bucket in locator: %s", locator)
		}
		return Reference{Bucket: parsed.Host, Name: name}, nil
	case "http", "https":
		return parseServiceURL(parsed)
	default:
		return Reference{}, fmt.Errorf("unsupported locator scheme: %s", locator)
	}
}

func parseServiceURL(parsed *url.URL) (Reference, error) {
	// Expected path shape: /v0/b/{bucket}/o/{encoded object path}.
	// EscapedPath keeps the object name as a single encoded segment, so a
	// width-limited split leaves the whole name in the last part.
	parts := strings.SplitN(strings.TrimPrefix(parsed.EscapedPath(), "/"), "/", 5)
	if len(parts) < 5 || parts[0] != apiVersion || parts[1] != "b" || parts[2] == "" || parts[3] != "o" || parts[4] == "" {
		return Reference{}, fmt.Errorf("cannot parse service URL: %s", parsed)
	}

	name, err := url.PathUnescape(parts[4])
	if err != nil {
		return Reference{}, fmt.Errorf("decode object name: %w", err)
	}
	return Reference{Bucket: parts[2], Name: name}, nil
}

// String returns the gs:// form of the reference.
func (r Reference) String() string {
	return fmt.Sprintf("gs://%s/%s", r.Bucket, r.Name)
}

// BucketURL returns the base request URL of the reference's bucket on the
// given host. All object operations and upload sessions start from this URL.
func (r Reference) BucketURL(host string) string {
	if host == "" {
		host = DefaultHost
	}
	return fmt.Sprintf("%s/%s/b/%s/o", strings.TrimSuffix(host, "/"), apiVersion, r.Bucket)
}

// ObjectURL returns the request URL of the object itself. The object name is
// encoded as a single path segment: slashes inside the name are escaped too,
// per the service's addressing scheme.
func (r Reference) ObjectURL(host string) string {
	return r.BucketURL(host) + "/" + url.PathEscape(r.Name)
}
