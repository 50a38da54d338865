// Package sigv2 implements AWS Signature Version 2 request signing as used
// by S3 and wire-compatible object stores (Aliyun OSS, Sina SCS).
//
// The scheme has three pieces:
//   - A canonical string assembled from the request method, content hash,
//     content type, date, provider metadata headers, and resource path.
//   - An HMAC-SHA1 digest over that string, keyed by the secret key, carried
//     base64-encoded in the Authorization header.
//   - A base64 MD5 content hash (Content-MD5) for body integrity.
//
// The signature and the content hash are independent: the server validates
// both. The canonical string must be byte-exact with the server's own
// computation - any deviation is rejected as an authentication failure with
// no further diagnostics.
package sigv2

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
)

// DefaultHeaderPrefix selects AWS-style provider headers (x-amz-meta-*,
// x-amz-acl, ...) for canonicalization.
const DefaultHeaderPrefix = "x-amz-"

// Canonical builds the canonical string for a request.
//
// The layout is fixed by the protocol:
//
//	METHOD \n Content-MD5 \n Content-Type \n Date \n
//	<canonicalized provider headers> <canonicalized resource>[?subresource]
//
// headerPrefix selects which headers participate in the canonicalized
// header section (typically "x-amz-" or "x-oss-"). resource must already be
// in canonical form (see CanonicalResource). subresource, when non-empty,
// is appended verbatim after a "?".
func Canonical(method string, headers http.Header, resource, subresource, headerPrefix string) string {
	if subresource != "" {
		resource += "?" + subresource
	}
	return strings.Join([]string{
		method,
		headers.Get("Content-MD5"),
		headers.Get("Content-Type"),
		headers.Get("Date"),
	}, "\n") + "\n" + CanonicalHeaders(headers, headerPrefix) + resource
}

// CanonicalHeaders canonicalizes provider metadata headers.
//
// Header names are case-folded, filtered by prefix, grouped by name with
// repeated values joined by commas, sorted by name, and emitted as
// "name:value\n" lines. The result is deterministic under any reordering or
// case permutation of the input, which is required because the server
// recomputes the same canonicalization independently. An empty input yields
// an empty string.
func CanonicalHeaders(headers http.Header, prefix string) string {
	groups := make(map[string][]string)
	for name, values := range headers {
		name = strings.ToLower(name)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		groups[name] = append(groups[name], values...)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(groups[name], ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// CanonicalResource builds the canonicalized resource path for a bucket and
// optional key: "/" + quoted bucket + "/" [+ quoted key]. The trailing slash
// is kept when the key is absent.
func CanonicalResource(bucket, key string) string {
	res := "/" + Quote(bucket) + "/"
	if key != "" {
		res += Quote(key)
	}
	return res
}

// Sign computes the base64 HMAC-SHA1 signature of the canonical string.
//
// Pure function; identical inputs always yield identical output, and the
// output must match the server's independent computation byte for byte.
func Sign(secretKey, canonical string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Authorization formats the Authorization header value for a signed request:
// "AWS <access-key>:<signature>".
func Authorization(accessKey, secretKey, canonical string) string {
	return "AWS " + accessKey + ":" + Sign(secretKey, canonical)
}

// ContentMD5 computes the base64 MD5 content hash carried in the
// Content-MD5 header. This is the body integrity check; it is distinct from
// the HMAC-SHA1 authenticity signature.
func ContentMD5(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}
