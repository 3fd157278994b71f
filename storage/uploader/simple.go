package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/docker/go-units"
)

// simpleUpload sends the whole payload in one multipart/related request:
// a JSON metadata part followed by the raw payload bytes.
func (t *Task) simpleUpload(ctx context.Context) (*storage.ObjectMetadata, error) {
	t.logger.Debugf("Simple upload of %s to %s",
		units.HumanSizeWithPrecision(float64(t.payload.Size()), 3), t.config.ObjectName)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	metadataHeader := textproto.MIMEHeader{}
	metadataHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metadataPart, err := writer.CreatePart(metadataHeader)
	if err != nil {
		return nil, fmt.Errorf("create metadata part: %w", err)
	}
	if err := json.NewEncoder(metadataPart).Encode(t.metadataBody()); err != nil {
		return nil, fmt.Errorf("encode metadata part: %w", err)
	}

	payloadHeader := textproto.MIMEHeader{}
	if contentType := t.payload.ContentType(); contentType != "" {
		payloadHeader.Set("Content-Type", contentType)
	}
	payloadPart, err := writer.CreatePart(payloadHeader)
	if err != nil {
		return nil, fmt.Errorf("create payload part: %w", err)
	}
	if _, err := io.Copy(payloadPart, t.payload.Reader()); err != nil {
		return nil, fmt.Errorf("write payload part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uploadTargetURL(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// mime/multipart only knows form-data; the protocol wants multipart/related
	// with the same boundary.
	req.Header.Set("Content-Type", strings.Replace(writer.FormDataContentType(), "form-data", "related", 1))
	req.Header.Set(headerUploadProtocol, "multipart")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("simple upload request: %w", err)
	}
	defer t.closeBody(resp.Body)

	if !isSuccess(resp) {
		return nil, &UploadError{StatusCode: resp.StatusCode, Body: readErrorBody(resp)}
	}

	var metadata storage.ObjectMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	t.emitProgress(t.payload.Size())
	return &metadata, nil
}
