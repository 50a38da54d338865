package bucket

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakemoor/gostratus/pkg/sigv2"
)

func TestBuildURL(t *testing.T) {
	b := newTestBucket(t, nil)

	tests := []struct {
		name string
		key  string
		args Args
		sep  string
		want string
	}{
		{
			name: "bucket root",
			want: "https://s3.amazonaws.com/bottle/",
		},
		{
			name: "plain key",
			key:  "the-dregs",
			want: "https://s3.amazonaws.com/bottle/the-dregs",
		},
		{
			name: "space in key",
			key:  "the dregs",
			want: "https://s3.amazonaws.com/bottle/the%20dregs",
		},
		{
			name: "slash kept literal",
			key:  "a/b/c.txt",
			want: "https://s3.amazonaws.com/bottle/a/b/c.txt",
		},
		{
			name: "list args joined with semicolon",
			args: Args{{"prefix", "logs/"}, {"max-keys", "10"}},
			sep:  argSepList,
			want: "https://s3.amazonaws.com/bottle/?prefix=logs%2F;max-keys=10",
		},
		{
			name: "presign args joined with ampersand",
			key:  "k",
			args: Args{{"a", "1"}, {"b", "two words"}},
			sep:  argSepPresign,
			want: "https://s3.amazonaws.com/bottle/k?a=1&b=two+words",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sep := tt.sep
			if sep == "" {
				sep = argSepPresign
			}
			assert.Equal(t, tt.want, b.buildURL(tt.key, tt.args, sep))
		})
	}
}

func TestPublicURL(t *testing.T) {
	b := newTestBucket(t, nil)
	assert.Equal(t, "https://s3.amazonaws.com/bottle/the%20dregs", b.URL("the dregs"))
}

func TestSignedURL(t *testing.T) {
	b := newTestBucket(t, nil)
	expire := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	raw := b.SignedURL("secret file.txt", expire)
	assert.True(t, strings.HasPrefix(raw, "https://s3.amazonaws.com/bottle/secret%20file.txt?"), raw)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "0PN5J17HBGZHT7JJ3X82", q.Get("AWSAccessKeyId"))
	assert.Equal(t, "1785585600", q.Get("Expires"))

	// The signature must match the query-authentication canonical form:
	// expiry epoch in the Date slot, no trailing newline after the resource.
	canonical := "GET\n\n\n1785585600\n/bottle/secret%20file.txt"
	assert.Equal(t, sigv2.Sign("uV3F3YluFJax1cknvbcGwgjvx4QpvB+leU8dUj2o", canonical), q.Get("Signature"))

	// Different expiries produce different signatures.
	other := b.SignedURL("secret file.txt", expire.Add(time.Second))
	assert.NotEqual(t, raw, other)
}

func TestSignedURLFor(t *testing.T) {
	b := newTestBucket(t, nil)
	frozen := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return frozen }

	u, err := url.Parse(b.SignedURLFor("key", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "1785589200", u.Query().Get("Expires"))

	// Non-positive TTL falls back to the default window.
	u, err = url.Parse(b.SignedURLFor("key", 0))
	require.NoError(t, err)
	assert.Equal(t, "1785585900", u.Query().Get("Expires"))
}
