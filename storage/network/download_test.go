package network

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitrise-io/go-storage/storage"
)

func TestClient_DownloadToFile(t *testing.T) {
	content := []byte("downloaded object content")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			assert.Equal(t, "tok1", r.URL.Query().Get("token"))
			http.ServeContent(w, r, "data.bin", time.Now(), bytes.NewReader(content))
			return
		}

		_ = json.NewEncoder(w).Encode(storage.ObjectMetadata{
			Name:           "data.bin",
			Size:           strconv.Itoa(len(content)),
			DownloadTokens: "tok1,tok2",
		})
	}))
	defer server.Close()

	client, err := NewClient(storage.Config{Host: server.URL}, log.NewLogger())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "data.bin")
	err = client.DownloadToFile(context.Background(), storage.Reference{Bucket: "my-bucket", Name: "data.bin"}, dest)

	require.NoError(t, err)
	downloaded, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, downloaded)
}

func TestClient_DownloadToFile_missingObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(storage.Config{Host: server.URL}, log.NewLogger())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "missing.bin")
	err = client.DownloadToFile(context.Background(), storage.Reference{Bucket: "b", Name: "missing.bin"}, dest)

	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func Test_firstDownloadToken(t *testing.T) {
	assert.Equal(t, "", firstDownloadToken(""))
	assert.Equal(t, "tok1", firstDownloadToken("tok1"))
	assert.Equal(t, "tok1", firstDownloadToken("tok1,tok2,tok3"))
}
