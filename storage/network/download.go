package network

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/docker/go-units"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/melbahja/got"
)

// DownloadToFile fetches the object's content into dest. The media URL is
// resolved from the object's metadata first, so a missing object surfaces
// as ErrObjectNotFound before any content request is made.
func (c *Client) DownloadToFile(ctx context.Context, ref storage.Reference, dest string) error {
	metadata, err := c.GetMetadata(ctx, ref)
	if err != nil {
		return fmt.Errorf("resolve download URL: %w", err)
	}

	query := []storage.QueryParam{
		{Key: "alt", Value: storage.StringParam("media")},
	}
	if token := firstDownloadToken(metadata.DownloadTokens); token != "" {
		query = append(query, storage.QueryParam{Key: "token", Value: storage.StringParam(token)})
	}
	url := ref.ObjectURL(c.config.Host) + "?" + storage.EncodeQuery(query)

	if size, err := strconv.ParseInt(metadata.Size, 10, 64); err == nil {
		c.logger.Debugf("Downloading %s (%s)", ref, units.HumanSizeWithPrecision(float64(size), 3))
	}

	retryableHTTPClient := retryhttp.NewClient(c.logger)
	retryableHTTPClient.CheckRetry = createCustomRetryFunction(c.logger)

	if err := downloadFile(ctx, retryableHTTPClient.StandardClient(), url, dest); err != nil {
		return fmt.Errorf("failed to download object: %w", err)
	}
	return nil
}

func createCustomRetryFunction(logger log.Logger) func(context.Context, *http.Response, error) (bool, error) {
	return func(ctx context.Context, resp *http.Response, downloadErr error) (bool, error) {
		retry, err := retryablehttp.DefaultRetryPolicy(ctx, resp, downloadErr)
		logger.Debugf("CheckRetry: retry=%v ; err=%+v ; downloadErr=%+v", retry, err, downloadErr)
		return retry, err
	}
}

func downloadFile(ctx context.Context, client *http.Client, url string, dest string) error {
	downloader := got.New()
	downloader.Client = client

	return downloader.Do(got.NewDownload(ctx, url, dest))
}

// The service hands out download tokens as a comma-separated list; any one
// of them authorizes a media request.
func firstDownloadToken(tokens string) string {
	if tokens == "" {
		return ""
	}
	return strings.SplitN(tokens, ",", 2)[0]
}
