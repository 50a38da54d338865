package bucket

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Info is a read-only snapshot of object metadata built from response
// headers. It is constructed fresh per call and never persisted.
type Info struct {
	// Size is the object size in bytes (Content-Length).
	Size int64

	// MIMEType is the object content type.
	MIMEType string

	// Modified is when the object was last modified.
	Modified time.Time

	// Date is the server's response timestamp.
	Date time.Time

	// Headers is the raw response header mapping.
	Headers http.Header

	// Metadata is the decoded user metadata. Keys are lowercased; the wire
	// representation is case-insensitive, so original casing is not
	// preserved.
	Metadata map[string]string
}

// newInfo decodes response headers into an Info snapshot.
func newInfo(headers http.Header, prefix string) *Info {
	info := &Info{
		Headers:  headers,
		Metadata: headersMetadata(headers, prefix),
	}
	if v := headers.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			info.Size = n
		}
	}
	info.MIMEType = headers.Get("Content-Type")
	if v := headers.Get("Date"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			info.Date = t
		}
	}
	if v := headers.Get("Last-Modified"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			info.Modified = t
		}
	}
	return info
}

// metadataHeaders encodes a user metadata mapping as provider headers
// under the metadata prefix, e.g. {"hairdo": "secret"} becomes
// "X-Amz-Meta-Hairdo: secret".
func metadataHeaders(h http.Header, metadata map[string]string, prefix string) {
	for name, value := range metadata {
		h.Set(prefix+"meta-"+name, value)
	}
}

// headersMetadata decodes user metadata from response headers. Matching is
// case-folded before the prefix comparison; decoded keys are lowercased.
func headersMetadata(headers http.Header, prefix string) map[string]string {
	metaPrefix := prefix + "meta-"
	out := make(map[string]string)
	for name, values := range headers {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, metaPrefix) || len(values) == 0 {
			continue
		}
		out[lower[len(metaPrefix):]] = values[0]
	}
	return out
}
