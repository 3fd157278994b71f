//go:build integration
// +build integration

package integration

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/bitrise-io/go-storage/storage"
)

var logger = log.NewLogger()

func checksumOf(bytes []byte) string {
	hash := sha256.New()
	hash.Write(bytes)
	return hex.EncodeToString(hash.Sum(nil))
}

// testConfig assembles the client config from the environment and skips the
// test when the integration bucket is not configured.
func testConfig(t *testing.T) (storage.Config, string) {
	t.Helper()

	bucket := os.Getenv("STORAGE_INTEGRATION_BUCKET")
	if bucket == "" {
		t.Skip("STORAGE_INTEGRATION_BUCKET is not set")
	}

	return storage.Config{
		Host:        os.Getenv(storage.HostEnvKey),
		AccessToken: storage.Secret(os.Getenv(storage.AccessTokenEnvKey)),
	}, bucket
}
