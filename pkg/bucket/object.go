package bucket

import (
	"mime"
	"net/http"
	"strings"
)

// DefaultMIMEType is used when no content type is given and none can be
// guessed from the key.
const DefaultMIMEType = "application/octet-stream"

// Object is an uploadable payload together with its upload options: a plain
// value passed to Put, not a behavior-carrying wrapper.
type Object struct {
	// Data is the object content.
	Data []byte

	// MIMEType is the content type to store. Empty means guess from the
	// key's extension, falling back to DefaultMIMEType.
	MIMEType string

	// ACL is an optional canned ACL applied at upload.
	ACL ACL

	// Metadata is optional user metadata, carried as provider headers.
	Metadata map[string]string

	// Transform, when set, is applied to the outbound headers and body
	// before the content length and hash are computed. The returned bytes
	// replace the body.
	Transform func(http.Header, []byte) []byte
}

// guessMIMEType guesses a content type from a key's filename extension.
// Keys without an extension get the default. "jpg" is folded to "jpeg"
// before lookup.
func guessMIMEType(key string) string {
	idx := strings.LastIndexByte(key, '.')
	if idx < 0 {
		return DefaultMIMEType
	}
	ext := strings.ToLower(key[idx+1:])
	if ext == "jpg" {
		ext = "jpeg"
	}
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		return mt
	}
	return DefaultMIMEType
}
