package network

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/bitrise-io/go-storage/storage/uploader"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/docker/go-units"
)

// UploadBytes uploads an in-memory payload to ref.
func (c *Client) UploadBytes(ctx context.Context, ref storage.Reference, data []byte, contentType string, metadata map[string]interface{}) (*storage.ObjectMetadata, error) {
	return c.upload(ctx, ref, uploader.NewBytesPayload(data, contentType), metadata)
}

// UploadFile uploads the file at srcPath to ref.
func (c *Client) UploadFile(ctx context.Context, ref storage.Reference, srcPath string, contentType string, metadata map[string]interface{}) (*storage.ObjectMetadata, error) {
	payload, err := uploader.NewFilePayload(srcPath, contentType)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := payload.Close(); err != nil {
			c.logger.Errorf("failed to close file: %s", err)
		}
	}()

	return c.upload(ctx, ref, payload, metadata)
}

// UploadGlob uploads every file matching pattern into the bucket, naming
// the objects prefix + the match's pattern-relative path. Patterns follow
// doublestar syntax, so "**" recurses into subdirectories. Returns the
// metadata of the uploaded objects.
func (c *Client) UploadGlob(ctx context.Context, bucket string, pattern string, prefix string) ([]*storage.ObjectMetadata, error) {
	base, rest := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithNoFollow())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		c.logger.Warnf("No match for pattern: %s", pattern)
		return nil, nil
	}

	var uploaded []*storage.ObjectMetadata
	for _, match := range matches {
		srcPath := filepath.Join(base, match)
		info, err := os.Stat(srcPath)
		if err != nil {
			c.logger.Warnf("Skipping %s: %s", srcPath, err)
			continue
		}
		if info.IsDir() {
			continue
		}

		ref := storage.Reference{Bucket: bucket, Name: path.Join(prefix, filepath.ToSlash(match))}
		metadata, err := c.UploadFile(ctx, ref, srcPath, "", nil)
		if err != nil {
			return uploaded, fmt.Errorf("upload %s: %w", srcPath, err)
		}
		uploaded = append(uploaded, metadata)
	}

	c.logger.Donef("Uploaded %d objects", len(uploaded))
	return uploaded, nil
}

func (c *Client) upload(ctx context.Context, ref storage.Reference, payload uploader.Payload, metadata map[string]interface{}) (*storage.ObjectMetadata, error) {
	c.logger.Infof("Uploading %s (%s)", ref, units.HumanSizeWithPrecision(float64(payload.Size()), 3))

	task := uploader.New(payload, uploader.Config{
		BaseURL:    ref.BucketURL(c.config.Host),
		ObjectName: ref.Name,
		Metadata:   metadata,
		Client:     authedDoer{client: uploader.DefaultHTTPClient(), token: c.config.AccessToken},
		Logger:     c.logger,
		OnProgress: func(p uploader.Progress) {
			c.logger.Debugf("Uploaded %d of %d bytes", p.Offset, p.Total)
		},
	})

	startTime := time.Now()
	result, err := task.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	uploadTime := time.Since(startTime).Round(time.Second)
	c.logger.Donef("Uploaded %s in %s (%d chunks)", ref, uploadTime, task.Stats().ChunkCount())
	return result, nil
}

// authedDoer attaches the access token to every upload request. The upload
// path deliberately has no retry: a failed request fails the task and the
// caller decides whether to construct a new one.
type authedDoer struct {
	client *http.Client
	token  storage.Secret
}

func (d authedDoer) Do(req *http.Request) (*http.Response, error) {
	if d.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", string(d.token)))
	}
	return d.client.Do(req)
}
