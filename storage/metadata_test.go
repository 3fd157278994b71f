package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeUploadMetadata(t *testing.T) {
	custom := map[string]interface{}{
		"cacheControl": "public, max-age=3600",
		"name":         "attacker-controlled",
		"contentType":  "text/evil",
	}

	merged := MergeUploadMetadata(custom, "path/to/object.bin", "application/octet-stream")

	// Task-owned values always win over caller entries.
	assert.Equal(t, "path/to/object.bin", merged["name"])
	assert.Equal(t, "application/octet-stream", merged["contentType"])
	assert.Equal(t, "public, max-age=3600", merged["cacheControl"])

	// The caller's map is left untouched.
	assert.Equal(t, "attacker-controlled", custom["name"])
}

func TestMergeUploadMetadata_nilCustom(t *testing.T) {
	merged := MergeUploadMetadata(nil, "object.txt", "text/plain")

	assert.Equal(t, map[string]interface{}{
		"name":        "object.txt",
		"contentType": "text/plain",
	}, merged)
}
