// Package uploader implements the client side of the service's chunked,
// resumable upload protocol. A Task uploads one payload to one destination
// object, choosing between a single multipart request for small payloads and
// a negotiated resumable session with sequential chunk requests for large
// ones. Tasks are single-use: retries mean constructing a new task.
package uploader

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Wire headers of the upload protocol.
const (
	headerUploadProtocol          = "X-Goog-Upload-Protocol"
	headerUploadCommand           = "X-Goog-Upload-Command"
	headerUploadOffset            = "X-Goog-Upload-Offset"
	headerUploadHeaderContentLen  = "X-Goog-Upload-Header-Content-Length"
	headerUploadHeaderContentType = "X-Goog-Upload-Header-Content-Type"
	headerUploadURL               = "X-Goog-Upload-URL"
	headerUploadChunkGranularity  = "X-Goog-Upload-Chunk-Granularity"
	headerUploadStatus            = "X-Goog-Upload-Status"
)

// State identifies where a task is in its lifecycle. Transitions are
// monotone: a task never moves back to an earlier state, and the terminal
// states are absorbing.
type State int32

// Task states.
const (
	StatePending State = iota
	StateSimpleInFlight
	StateResumableNegotiating
	StateResumableUploading
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSimpleInFlight:
		return "simple-in-flight"
	case StateResumableNegotiating:
		return "resumable-negotiating"
	case StateResumableUploading:
		return "resumable-uploading"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is a snapshot of server-acknowledged upload progress.
type Progress struct {
	Offset int64
	Total  int64
}

// Task is a single upload attempt, bound to one destination and one payload.
type Task struct {
	config  Config
	payload Payload
	client  RequestDoer
	logger  log.Logger
	stats   *Stats

	state int32 // holds a State value, accessed atomically

	// Resumable session values, written only by the running Start call.
	// The upload URL and chunk granularity are learned once from the
	// session-start response and are immutable afterwards.
	uploadURL   string
	granularity int64
	offset      int64

	progress chan Progress

	// Final outcome, written once before the state turns terminal.
	result    *storage.ObjectMetadata
	resultErr error
}

// New creates a task that will upload payload according to config.
func New(payload Payload, config Config) *Task {
	client := config.Client
	if client == nil {
		client = DefaultHTTPClient()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger()
	}

	return &Task{
		config:   config,
		payload:  payload,
		client:   client,
		logger:   logger,
		stats:    &Stats{},
		progress: make(chan Progress, 1),
	}
}

// Start runs the upload to completion and returns the final object metadata.
// The payload size decides the path: strictly below the simple-upload
// threshold a single multipart request is sent, otherwise a resumable
// session is negotiated and driven chunk by chunk.
//
// Start may be called once per task. A second call returns ErrAlreadyStarted
// without issuing any request. Canceling ctx aborts the in-flight request
// and fails the task.
func (t *Task) Start(ctx context.Context) (*storage.ObjectMetadata, error) {
	var metadata *storage.ObjectMetadata
	var err error

	if t.payload.Size() < t.config.threshold() {
		if !t.moveState(StatePending, StateSimpleInFlight) {
			return nil, ErrAlreadyStarted
		}
		metadata, err = t.simpleUpload(ctx)
	} else {
		if !t.moveState(StatePending, StateResumableNegotiating) {
			return nil, ErrAlreadyStarted
		}
		metadata, err = t.resumableUpload(ctx)
	}

	if err != nil {
		t.resultErr = err
		t.setState(StateFailed)
		close(t.progress)
		return nil, err
	}

	t.result = metadata
	t.setState(StateCompleted)
	close(t.progress)
	return metadata, nil
}

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	return State(atomic.LoadInt32(&t.state))
}

// Progress returns the task's progress feed: one snapshot per completed
// network round trip, closed once the task reaches a terminal state. The
// channel is meant for a single consumer; if the consumer lags, stale
// snapshots are replaced by newer ones.
func (t *Task) Progress() <-chan Progress {
	return t.progress
}

// Stats returns the task's chunk timing statistics.
func (t *Task) Stats() *Stats {
	return t.stats
}

// Result returns the task's final outcome. Valid once State reports
// StateCompleted or StateFailed.
func (t *Task) Result() (*storage.ObjectMetadata, error) {
	return t.result, t.resultErr
}

func (t *Task) moveState(from, to State) bool {
	return atomic.CompareAndSwapInt32(&t.state, int32(from), int32(to))
}

func (t *Task) setState(to State) {
	atomic.StoreInt32(&t.state, int32(to))
}

func (t *Task) emitProgress(offset int64) {
	p := Progress{Offset: offset, Total: t.payload.Size()}
	if t.config.OnProgress != nil {
		t.config.OnProgress(p)
	}

	// Conflating send: a lagging consumer sees the newest snapshot instead
	// of blocking the chunk loop.
	for {
		select {
		case t.progress <- p:
			return
		default:
			select {
			case <-t.progress:
			default:
			}
		}
	}
}

// uploadTargetURL is the URL of both the simple upload request and the
// resumable session-start request.
func (t *Task) uploadTargetURL() string {
	query := storage.EncodeQuery([]storage.QueryParam{
		{Key: "name", Value: storage.StringParam(t.config.ObjectName)},
	})
	return t.config.BaseURL + "?" + query
}

func (t *Task) metadataBody() map[string]interface{} {
	return storage.MergeUploadMetadata(t.config.Metadata, t.config.ObjectName, t.payload.ContentType())
}

func (t *Task) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		t.logger.Warnf("failed to close response body: %s", err)
	}
}
