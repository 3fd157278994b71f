package uploader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrAlreadyStarted is returned when Start is called on a task that has
// already left the pending state.
var ErrAlreadyStarted = errors.New("upload task already started")

// SessionStartError reports a failed resumable session negotiation, either a
// non-success response or a response missing the session headers.
type SessionStartError struct {
	StatusCode int
	Body       string
	Reason     string
}

func (e *SessionStartError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("start upload session: %s (HTTP %d: %s)", e.Reason, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("start upload session: HTTP %d: %s", e.StatusCode, e.Body)
}

// UploadError reports a non-success response to a simple upload or a chunk
// upload request. Body preserves the raw response body text for diagnosis.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: HTTP %d: %s", e.StatusCode, e.Body)
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("(unreadable body: %s)", err)
	}
	return string(body)
}
