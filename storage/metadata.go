package storage

// ObjectMetadata is the object resource returned by the service after
// uploads and metadata operations. Size and generation values come back as
// decimal strings on the wire.
type ObjectMetadata struct {
	Name               string            `json:"name"`
	Bucket             string            `json:"bucket,omitempty"`
	Generation         string            `json:"generation,omitempty"`
	Metageneration     string            `json:"metageneration,omitempty"`
	ContentType        string            `json:"contentType,omitempty"`
	ContentEncoding    string            `json:"contentEncoding,omitempty"`
	ContentDisposition string            `json:"contentDisposition,omitempty"`
	CacheControl       string            `json:"cacheControl,omitempty"`
	Size               string            `json:"size,omitempty"`
	MD5Hash            string            `json:"md5Hash,omitempty"`
	TimeCreated        string            `json:"timeCreated,omitempty"`
	Updated            string            `json:"updated,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	DownloadTokens     string            `json:"downloadTokens,omitempty"`
}

// MergeUploadMetadata builds the metadata body sent when creating an object.
// Caller-supplied entries are copied first; the name and contentType values
// are owned by the upload itself and always win over caller entries.
func MergeUploadMetadata(custom map[string]interface{}, name, contentType string) map[string]interface{} {
	merged := make(map[string]interface{}, len(custom)+2)
	for k, v := range custom {
		merged[k] = v
	}
	merged["name"] = name
	merged["contentType"] = contentType
	return merged
}
