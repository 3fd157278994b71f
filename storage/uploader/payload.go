package uploader

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Payload is a read-only byte source with a known total size. Slicing never
// mutates the source, so one payload instance can safely back several tasks.
type Payload interface {
	// Size returns the total number of payload bytes.
	Size() int64

	// ContentType returns the MIME type of the payload, empty if unknown.
	ContentType() string

	// Slice returns the [start, end) sub-range as a new payload of the same
	// kind. Out-of-range bounds are clamped to the payload size.
	Slice(start, end int64) Payload

	// Reader returns a fresh reader over the payload bytes.
	Reader() io.Reader
}

// BytesPayload is an in-memory payload backed by a byte slice.
type BytesPayload struct {
	data        []byte
	contentType string
}

// NewBytesPayload wraps data as a payload. The slice is not copied: the
// caller must not modify it while an upload is in flight.
func NewBytesPayload(data []byte, contentType string) *BytesPayload {
	return &BytesPayload{data: data, contentType: contentType}
}

// Size returns the total number of payload bytes.
func (p *BytesPayload) Size() int64 {
	return int64(len(p.data))
}

// ContentType returns the MIME type of the payload.
func (p *BytesPayload) ContentType() string {
	return p.contentType
}

// Slice returns the [start, end) sub-range as a new payload.
func (p *BytesPayload) Slice(start, end int64) Payload {
	start, end = clampRange(start, end, p.Size())
	return &BytesPayload{data: p.data[start:end], contentType: p.contentType}
}

// Reader returns a fresh reader over the payload bytes.
func (p *BytesPayload) Reader() io.Reader {
	return bytes.NewReader(p.data)
}

// FilePayload is a payload backed by a section of an open file. Readers are
// section readers, so slicing and reading never move the file offset.
type FilePayload struct {
	file        *os.File
	offset      int64
	size        int64
	contentType string
}

// NewFilePayload opens path and wraps its full contents as a payload.
// The caller owns the returned payload and must Close it after the upload.
func NewFilePayload(path string, contentType string) (*FilePayload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("cannot upload directory %s", path)
	}
	return &FilePayload{file: file, size: info.Size(), contentType: contentType}, nil
}

// Size returns the total number of payload bytes.
func (p *FilePayload) Size() int64 {
	return p.size
}

// ContentType returns the MIME type of the payload.
func (p *FilePayload) ContentType() string {
	return p.contentType
}

// Slice returns the [start, end) sub-range as a new payload sharing the
// underlying file handle.
func (p *FilePayload) Slice(start, end int64) Payload {
	start, end = clampRange(start, end, p.size)
	return &FilePayload{
		file:        p.file,
		offset:      p.offset + start,
		size:        end - start,
		contentType: p.contentType,
	}
}

// Reader returns a fresh reader over the payload's file section.
func (p *FilePayload) Reader() io.Reader {
	return io.NewSectionReader(p.file, p.offset, p.size)
}

// Close closes the underlying file. Slices share the handle, so only the
// payload returned by NewFilePayload should be closed.
func (p *FilePayload) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

func clampRange(start, end, size int64) (int64, int64) {
	if start < 0 {
		start = 0
	}
	if start > size {
		start = size
	}
	if end > size {
		end = size
	}
	if end < start {
		end = start
	}
	return start, end
}
