package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		want    Reference
		wantErr bool
	}{
		{
			name:    "gs URI",
			locator: "gs://my-bucket/path/to/object.txt",
			want:    Reference{Bucket: "my-bucket", Name: "path/to/object.txt"},
		},
		{
			name:    "gs URI with single segment name",
			locator: "gs://my-bucket/object.txt",
			want:    Reference{Bucket: "my-bucket", Name: "object.txt"},
		},
		{
			name:    "service URL",
			locator: "https://firebasestorage.googleapis.com/v0/b/my-bucket/o/path%2Fto%2Fobject.txt",
			want:    Reference{Bucket: "my-bucket", Name: "path/to/object.txt"},
		},
		{
			name:    "service URL with encoded space",
			locator: "https://firebasestorage.googleapis.com/v0/b/my-bucket/o/some%20file.bin",
			want:    Reference{Bucket: "my-bucket", Name: "some file.bin"},
		},
		{
			name:    "gs URI without bucket",
			locator: "gs:///object.txt",
			wantErr: true,
		},
		{
			name:    "service URL without object path",
			locator: "https://firebasestorage.googleapis.com/v0/b/my-bucket/o/",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			locator: "ftp://my-bucket/object.txt",
			wantErr: true,
		},
		{
			name:    "not a bucket path",
			locator: "https://example.com/something/else",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReference(tt.locator)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReference_URLs(t *testing.T) {
	ref := Reference{Bucket: "my-bucket", Name: "builds/2024/app release.ipa"}

	assert.Equal(t,
		"https://storage.example.com/v0/b/my-bucket/o",
		ref.BucketURL("https://storage.example.com"))

	// The object name is one encoded path segment: slashes escaped too.
	assert.Equal(t,
		"https://storage.example.com/v0/b/my-bucket/o/builds%2F2024%2Fapp%20release.ipa",
		ref.ObjectURL("https://storage.example.com"))
}

func TestReference_ObjectURL_specialCharacters(t *testing.T) {
	ref := Reference{Bucket: "b", Name: "a#b?c d"}
	url := ref.ObjectURL("https://host")

	assert.NotContains(t, url, "#")
	assert.NotContains(t, url, "?")
	assert.NotContains(t, url, " ")
}

func TestReference_BucketURL_defaultHost(t *testing.T) {
	ref := Reference{Bucket: "my-bucket", Name: "o.txt"}
	assert.Equal(t, DefaultHost+"/v0/b/my-bucket/o", ref.BucketURL(""))
}

func TestReference_String(t *testing.T) {
	ref := Reference{Bucket: "my-bucket", Name: "path/to/object.txt"}
	assert.Equal(t, "gs://my-bucket/path/to/object.txt", ref.String())
}
