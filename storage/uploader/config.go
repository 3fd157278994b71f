package uploader

import (
	"net/http"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
)

// SimpleUploadThreshold is the documented ceiling for single-request uploads.
// Payloads at or above this size go through a resumable session.
const SimpleUploadThreshold int64 = 5_000_000

// RequestDoer performs a single HTTP request. Implementations attach any
// authorization headers themselves; the upload task never manages auth state.
// There is no retry on this path: a failed request fails the task.
type RequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for an upload task.
type Config struct {
	// BaseURL is the bucket's base request URL (see storage.Reference.BucketURL).
	BaseURL string

	// ObjectName is the destination object name within the bucket.
	ObjectName string

	// Metadata is merged into the object's metadata on creation. The name
	// and contentType keys are owned by the task and cannot be overridden.
	Metadata map[string]interface{}

	// SimpleUploadThreshold overrides the protocol's simple-upload ceiling.
	// Zero means the protocol default; a negative value forces the
	// resumable path regardless of payload size. Exposed for tests.
	SimpleUploadThreshold int64

	// Client is the HTTP client to use for the upload requests.
	// If nil, a default optimized client will be created.
	Client RequestDoer

	// Logger receives debug output. If nil, a default logger is created.
	Logger log.Logger

	// OnProgress, if set, is called after every completed chunk round trip.
	OnProgress func(p Progress)
}

func (c Config) threshold() int64 {
	if c.SimpleUploadThreshold != 0 {
		return c.SimpleUploadThreshold
	}
	return SimpleUploadThreshold
}

// DefaultHTTPClient creates an HTTP client tuned for chunk uploads.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		// No timeout - per-request deadlines are the caller's business, via context
		Timeout: 0,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     10 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			Proxy:               http.ProxyFromEnvironment,
		},
	}
}
