package storage

import (
	"net/url"
	"strings"
)

// QueryParam is a single query string parameter. A nil Value marks the
// parameter as unset, which omits it from the encoded result entirely
// (as opposed to an empty string value, which is kept as "key=").
type QueryParam struct {
	Key   string
	Value *string
}

// StringParam is a convenience helper for building a set QueryParam value.
func StringParam(value string) *string {
	return &value
}

// EncodeQuery joins the given parameters as percent-encoded key=value pairs
// separated by "&", preserving parameter order. Parameters with a nil value
// are skipped. An empty parameter set encodes to an empty string with no
// leading "?".
func EncodeQuery(params []QueryParam) string {
	pairs := make([]string, 0, len(params))
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		pairs = append(pairs, url.QueryEscape(p.Key)+"="+url.QueryEscape(*p.Value))
	}
	return strings.Join(pairs, "&")
}
