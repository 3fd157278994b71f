// Package network implements the HTTP surface of the object storage client:
// metadata operations, listing, deletion, downloads and the composition
// entry points for uploads.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrObjectNotFound is returned when the referenced object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ListParams identifies a page of a bucket listing.
type ListParams struct {
	Bucket string
	// Prefix restricts results to object names starting with this value.
	Prefix string
	// Delimiter collapses names sharing a prefix up to the delimiter into
	// a single Prefixes entry. "/" gives folder-like listing.
	Delimiter string
	// PageToken continues a previous listing.
	PageToken string
	// MaxResults caps the page size. 0 means server default.
	MaxResults int
}

// ListResult is one page of a bucket listing.
type ListResult struct {
	Prefixes      []string                 `json:"prefixes"`
	Items         []storage.ObjectMetadata `json:"items"`
	NextPageToken string                   `json:"nextPageToken"`
}

// Client performs object storage operations. Metadata, list and delete
// requests go through a retrying HTTP client since they are idempotent;
// uploads never retry (see the uploader package).
type Client struct {
	httpClient *retryablehttp.Client
	config     storage.Config
	logger     log.Logger
}

// NewClient validates config and creates a ready-to-use client.
func NewClient(config storage.Config, logger log.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		httpClient: retryhttp.NewClient(logger),
		config:     config,
		logger:     logger,
	}, nil
}

// GetMetadata fetches the object resource of ref.
func (c *Client) GetMetadata(ctx context.Context, ref storage.Reference) (*storage.ObjectMetadata, error) {
	req, err := c.newRequest(ctx, http.MethodGet, ref.ObjectURL(c.config.Host), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unwrapError(resp)
	}

	var metadata storage.ObjectMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// UpdateMetadata patches the object resource of ref with the given fields
// and returns the updated resource.
func (c *Client) UpdateMetadata(ctx context.Context, ref storage.Reference, update map[string]interface{}) (*storage.ObjectMetadata, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPatch, ref.ObjectURL(c.config.Host), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unwrapError(resp)
	}

	var metadata storage.ObjectMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// Delete removes the object of ref. Returns ErrObjectNotFound if it does
// not exist.
func (c *Client) Delete(ctx context.Context, ref storage.Reference) error {
	req, err := c.newRequest(ctx, http.MethodDelete, ref.ObjectURL(c.config.Host), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrObjectNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return unwrapError(resp)
	}
	return nil
}

// List fetches one page of a bucket listing.
func (c *Client) List(ctx context.Context, params ListParams) (ListResult, error) {
	query := []storage.QueryParam{}
	if params.Prefix != "" {
		query = append(query, storage.QueryParam{Key: "prefix", Value: storage.StringParam(params.Prefix)})
	}
	if params.Delimiter != "" {
		query = append(query, storage.QueryParam{Key: "delimiter", Value: storage.StringParam(params.Delimiter)})
	}
	if params.PageToken != "" {
		query = append(query, storage.QueryParam{Key: "pageToken", Value: storage.StringParam(params.PageToken)})
	}
	if params.MaxResults > 0 {
		query = append(query, storage.QueryParam{Key: "maxResults", Value: storage.StringParam(strconv.Itoa(params.MaxResults))})
	}

	url := storage.Reference{Bucket: params.Bucket}.BucketURL(c.config.Host)
	if encoded := storage.EncodeQuery(query); encoded != "" {
		url += "?" + encoded
	}

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ListResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ListResult{}, err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return ListResult{}, unwrapError(resp)
	}

	var result ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ListResult{}, err
	}
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body interface{}) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", string(c.config.AccessToken)))
	}
	return req, nil
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Printf(err.Error())
	}
}

func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorResp)
}
