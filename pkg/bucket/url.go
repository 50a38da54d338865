package bucket

import (
	"strings"

	"github.com/lakemoor/gostratus/pkg/sigv2"
)

// Args is an ordered list of query argument pairs. Order is preserved in
// the built URL, which matters for signed query strings where the server
// recomputes the signature over the same ordering.
type Args [][2]string

// Separators for joining query pairs. The protocol's listing URLs use ";"
// for signing compatibility; standard pre-signed URLs use "&".
const (
	argSepList    = ";"
	argSepPresign = "&"
)

// buildURL composes a request URL from the bucket base URL, an optional
// key, and optional query arguments joined by sep.
//
// The key is percent-encoded with slashes kept literal, so keys may span
// path segments. Query names and values are independently form-encoded.
func (b *Bucket) buildURL(key string, args Args, sep string) string {
	var sb strings.Builder
	sb.WriteString(b.base)
	sb.WriteByte('/')
	if key != "" {
		sb.WriteString(sigv2.Quote(key))
	}
	if len(args) > 0 {
		sb.WriteByte('?')
		for i, pair := range args {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(sigv2.QueryQuote(pair[0]))
			sb.WriteByte('=')
			sb.WriteString(sigv2.QueryQuote(pair[1]))
		}
	}
	return sb.String()
}
