package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/docker/go-units"
)

// Upload command and status values of the resumable protocol.
const (
	commandStart    = "start"
	commandUpload   = "upload"
	commandFinalize = "upload, finalize"
	statusFinal     = "final"
)

func (t *Task) resumableUpload(ctx context.Context) (*storage.ObjectMetadata, error) {
	if err := t.startSession(ctx); err != nil {
		return nil, err
	}
	t.setState(StateResumableUploading)
	return t.uploadChunks(ctx)
}

// startSession negotiates a resumable session and stores the server-issued
// upload URL and chunk granularity. Both are read exactly once and never
// change for the rest of the session.
func (t *Task) startSession(ctx context.Context) error {
	body, err := json.Marshal(t.metadataBody())
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uploadTargetURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set(headerUploadProtocol, "resumable")
	req.Header.Set(headerUploadCommand, commandStart)
	req.Header.Set(headerUploadHeaderContentLen, strconv.FormatInt(t.payload.Size(), 10))
	req.Header.Set(headerUploadHeaderContentType, t.payload.ContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("session start request: %w", err)
	}
	defer t.closeBody(resp.Body)

	if !isSuccess(resp) {
		return &SessionStartError{StatusCode: resp.StatusCode, Body: readErrorBody(resp)}
	}

	uploadURL := resp.Header.Get(headerUploadURL)
	if uploadURL == "" {
		return &SessionStartError{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("response has no %s header", headerUploadURL),
		}
	}

	granularityValue := resp.Header.Get(headerUploadChunkGranularity)
	granularity, err := strconv.ParseInt(granularityValue, 10, 64)
	if err != nil || granularity <= 0 {
		return &SessionStartError{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("invalid %s header: %q", headerUploadChunkGranularity, granularityValue),
		}
	}

	t.uploadURL = uploadURL
	t.granularity = granularity
	t.offset = 0

	t.logger.Debugf("Resumable session started, chunk granularity: %s",
		units.HumanSizeWithPrecision(float64(granularity), 3))
	return nil
}

// uploadChunks drives the session through its strictly sequential chunk
// requests. The next chunk is not sliced until the previous response has
// been processed: the offset must reflect exactly what the server has
// acknowledged, since chunk boundaries are dictated by the server-assigned
// granularity.
func (t *Task) uploadChunks(ctx context.Context) (*storage.ObjectMetadata, error) {
	size := t.payload.Size()

	// Runs at least once so an empty payload is finalized with one
	// zero-byte chunk. A truncated slice marks the last chunk and turns
	// its command into a finalize request; when the size is an exact
	// multiple of the granularity that happens on a final empty slice.
	for {
		chunk := t.payload.Slice(t.offset, t.offset+t.granularity)
		lastChunk := chunk.Size() < t.granularity

		command := commandUpload
		if lastChunk {
			command = commandFinalize
		}

		t.logger.Debugf("Uploading chunk at offset %d/%d (%s) [avg=%v]",
			t.offset, size, command, t.stats.Average().Round(time.Millisecond))

		start := time.Now()
		metadata, err := t.uploadChunk(ctx, chunk, command)
		if err != nil {
			return nil, err
		}
		t.stats.Update(time.Since(start))

		t.offset += chunk.Size()
		t.emitProgress(t.offset)

		if metadata != nil {
			return metadata, nil
		}
		if lastChunk {
			// We asked for finalization but the server did not confirm it.
			return nil, fmt.Errorf("server did not finalize the upload session at offset %d", t.offset)
		}
	}
}

// uploadChunk sends one chunk. It returns the decoded object metadata when
// the server reports a final status, nil otherwise.
func (t *Task) uploadChunk(ctx context.Context, chunk Payload, command string) (*storage.ObjectMetadata, error) {
	// A non-nil empty body would make net/http treat the length as unknown
	// and drop the Content-Length header.
	var body io.Reader = http.NoBody
	if chunk.Size() > 0 {
		body = chunk.Reader()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("create chunk request: %w", err)
	}
	req.Header.Set(headerUploadOffset, strconv.FormatInt(t.offset, 10))
	req.Header.Set(headerUploadCommand, command)
	req.ContentLength = chunk.Size()

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chunk request at offset %d: %w", t.offset, err)
	}
	defer t.closeBody(resp.Body)

	if !isSuccess(resp) {
		return nil, &UploadError{StatusCode: resp.StatusCode, Body: readErrorBody(resp)}
	}

	// The status header is the authoritative completion signal: the
	// finalize command is a request, this is the server's confirmation.
	if resp.Header.Get(headerUploadStatus) != statusFinal {
		return nil, nil
	}

	var metadata storage.ObjectMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("decode finalize response: %w", err)
	}
	return &metadata, nil
}
