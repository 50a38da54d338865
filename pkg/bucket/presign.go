package bucket

import (
	"strconv"
	"time"

	"github.com/lakemoor/gostratus/pkg/sigv2"
)

// DefaultSignedURLTTL is how long a SignedURLFor URL stays valid when the
// caller does not pick an expiry.
const DefaultSignedURLTTL = 5 * time.Minute

// URL returns the public URL for a key. No authentication is attached; the
// URL only works for publicly readable objects.
//
//	New(Config{Name: "bottle"}) // then
//	b.URL("the dregs") == "https://s3.amazonaws.com/bottle/the%20dregs"
func (b *Bucket) URL(key string) string {
	return b.buildURL(key, nil, argSepPresign)
}

// SignedURL returns a query-authenticated GET URL that stops working at
// expireAt. HTTP clients can use it to access private objects without
// holding credentials.
//
// The canonical string substitutes the expiry epoch for the Date header and
// fixes the method to GET; the signature travels in the query string:
//
//	<base>/<key>?AWSAccessKeyId=<id>&Expires=<epoch>&Signature=<sig>
func (b *Bucket) SignedURL(key string, expireAt time.Time) string {
	epoch := strconv.FormatInt(expireAt.Unix(), 10)

	// No newline after the resource, unlike the header-signed form.
	canonical := "GET\n" +
		"\n" +
		"\n" +
		epoch + "\n" +
		sigv2.CanonicalResource(b.name, key)

	args := Args{
		{"AWSAccessKeyId", b.accessKey},
		{"Expires", epoch},
		{"Signature", sigv2.Sign(b.secretKey, canonical)},
	}
	return b.buildURL(key, args, argSepPresign)
}

// SignedURLFor returns a query-authenticated GET URL valid for ttl from
// now. A non-positive ttl uses DefaultSignedURLTTL.
func (b *Bucket) SignedURLFor(key string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return b.SignedURL(key, b.now().Add(ttl))
}
