//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitrise-io/go-storage/storage"
	"github.com/bitrise-io/go-storage/storage/network"
	"github.com/bitrise-io/go-storage/storage/uploader"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	// Given
	config, bucket := testConfig(t)
	logger.EnableDebugLog(true)

	client, err := network.NewClient(config, logger)
	require.NoError(t, err)

	content := bytes.Repeat([]byte("integration-test-"), 64)
	ref := storage.Reference{
		Bucket: bucket,
		Name:   fmt.Sprintf("integration/round-trip-%d.bin", time.Now().UnixNano()),
	}

	// When
	metadata, err := client.UploadBytes(context.Background(), ref, content, "application/octet-stream", nil)

	// Then
	require.NoError(t, err)
	assert.Equal(t, ref.Name, metadata.Name)

	dest := filepath.Join(t.TempDir(), "round-trip.bin")
	require.NoError(t, client.DownloadToFile(context.Background(), ref, dest))

	downloaded, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, checksumOf(content), checksumOf(downloaded))

	require.NoError(t, client.Delete(context.Background(), ref))
	_, err = client.GetMetadata(context.Background(), ref)
	assert.ErrorIs(t, err, network.ErrObjectNotFound)
}

func TestResumableUpload(t *testing.T) {
	// Given
	config, bucket := testConfig(t)
	logger.EnableDebugLog(true)

	client, err := network.NewClient(config, logger)
	require.NoError(t, err)

	// Larger than the simple-upload ceiling to exercise the chunk loop.
	content := bytes.Repeat([]byte("x"), int(uploader.SimpleUploadThreshold)+123)
	ref := storage.Reference{
		Bucket: bucket,
		Name:   fmt.Sprintf("integration/resumable-%d.bin", time.Now().UnixNano()),
	}

	// When
	metadata, err := client.UploadBytes(context.Background(), ref, content, "application/octet-stream", nil)

	// Then
	require.NoError(t, err)
	assert.Equal(t, ref.Name, metadata.Name)
	assert.Equal(t, fmt.Sprint(len(content)), metadata.Size)

	require.NoError(t, client.Delete(context.Background(), ref))
}
