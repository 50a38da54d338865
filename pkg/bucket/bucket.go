package bucket

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lakemoor/gostratus/pkg/sigv2"
)

// Bucket is a client for a single bucket on an S3-compatible store.
//
// A Bucket is immutable after New and safe for concurrent use provided its
// Transport is. It holds no locks, no shared mutable state, and runs no
// background tasks; every operation independently builds, signs, and
// dispatches its own request.
type Bucket struct {
	name            string
	accessKey       string
	secretKey       string
	base            string
	prefix          string
	transport       Transport
	maxAttempts     int
	transientStatus int
	limiter         *rate.Limiter
	logger          *zap.Logger

	// now is stubbed in tests; pre-signed URL expiry depends on it.
	now func() time.Time
}

// New creates a bucket client from cfg.
func New(cfg Config) (*Bucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bucket{
		name:            cfg.Name,
		accessKey:       cfg.AccessKey,
		secretKey:       cfg.SecretKey,
		base:            cfg.baseURL(),
		prefix:          cfg.headerPrefix(),
		transport:       cfg.Transport,
		maxAttempts:     cfg.MaxAttempts,
		transientStatus: cfg.TransientStatus,
		logger:          cfg.Logger,
		now:             time.Now,
	}
	if b.transport == nil {
		b.transport = http.DefaultTransport
	}
	if b.maxAttempts == 0 {
		b.maxAttempts = DefaultMaxAttempts
	}
	if b.transientStatus == 0 {
		b.transientStatus = DefaultTransientStatus
	}
	if cfg.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// ObjectReader is a fetched object: the body stream plus decoded metadata.
// The caller owns closing it.
type ObjectReader struct {
	io.ReadCloser

	// Info is the metadata snapshot decoded from the response headers.
	Info *Info
}

// Get fetches an object. A 404 is reported as a KeyError wrapping
// ErrNotFound.
func (b *Bucket) Get(ctx context.Context, key string) (*ObjectReader, error) {
	resp, err := b.do(ctx, http.MethodGet, key, nil, nil, nil)
	if err != nil {
		return nil, b.keyErr(key, err)
	}
	return &ObjectReader{
		ReadCloser: resp.Body,
		Info:       newInfo(resp.Header, b.prefix),
	}, nil
}

// Info fetches object metadata with a HEAD request. A 404 is reported as a
// KeyError wrapping ErrNotFound.
func (b *Bucket) Info(ctx context.Context, key string) (*Info, error) {
	resp, err := b.do(ctx, http.MethodHead, key, nil, nil, nil)
	if err != nil {
		return nil, b.keyErr(key, err)
	}
	drain(resp.Body)
	return newInfo(resp.Header, b.prefix), nil
}

// Exists reports whether a key exists.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.Info(ctx, key)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put uploads an object.
//
// The content type comes from obj.MIMEType, or is guessed from the key's
// extension. Metadata is encoded as provider headers and an optional canned
// ACL is attached. The Transform hook, when set, rewrites headers and body
// before the content length and hash are computed.
func (b *Bucket) Put(ctx context.Context, key string, obj Object) error {
	h := make(http.Header)
	mt := obj.MIMEType
	if mt == "" {
		mt = guessMIMEType(key)
	}
	h.Set("Content-Type", mt)
	metadataHeaders(h, obj.Metadata, b.prefix)
	if obj.ACL != "" {
		h.Set(b.prefix+"acl", string(obj.ACL))
	}

	data := obj.Data
	if obj.Transform != nil {
		data = obj.Transform(h, data)
	}
	if data == nil {
		data = []byte{}
	}
	h.Set("Content-MD5", sigv2.ContentMD5(data))

	resp, err := b.do(ctx, http.MethodPut, key, nil, data, h)
	if err != nil {
		return err
	}
	drain(resp.Body)
	return nil
}

// Delete removes an object. The outcome is always definitive: nil on any
// success status (204 No Content included), a KeyError wrapping ErrNotFound
// on 404, and a ServiceError otherwise.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	resp, err := b.do(ctx, http.MethodDelete, key, nil, nil, nil)
	if err != nil {
		return b.keyErr(key, err)
	}
	drain(resp.Body)
	return nil
}

// CopyOptions configure a Copy operation.
type CopyOptions struct {
	// MIMEType overrides the content type guess for the destination key.
	MIMEType string

	// ACL is an optional canned ACL for the copy. The source ACL is never
	// copied; the server defaults to private when unset.
	ACL ACL

	// Metadata, when non-nil, replaces the object metadata (directive
	// REPLACE). When nil the source metadata is copied (directive COPY).
	Metadata map[string]string
}

// Copy performs a server-side copy of source, in "<bucket>/<key>" form,
// onto key in this bucket.
func (b *Bucket) Copy(ctx context.Context, source, key string, opts CopyOptions) error {
	h := make(http.Header)
	mt := opts.MIMEType
	if mt == "" {
		mt = guessMIMEType(key)
	}
	h.Set("Content-Type", mt)
	h.Set(b.prefix+"copy-source", source)
	if opts.ACL != "" {
		h.Set(b.prefix+"acl", string(opts.ACL))
	}
	if opts.Metadata != nil {
		h.Set(b.prefix+"metadata-directive", "REPLACE")
		metadataHeaders(h, opts.Metadata, b.prefix)
	} else {
		h.Set(b.prefix+"metadata-directive", "COPY")
	}

	resp, err := b.do(ctx, http.MethodPut, key, nil, nil, h)
	if err != nil {
		return err
	}
	drain(resp.Body)
	return nil
}

// CreateOptions configure bucket creation.
type CreateOptions struct {
	// ACL is an optional canned ACL for the new bucket.
	ACL ACL

	// ConfigXML is an optional bucket configuration document, e.g. a
	// location constraint.
	ConfigXML []byte
}

// Create creates the bucket itself (PUT on the bucket root).
func (b *Bucket) Create(ctx context.Context, opts CreateOptions) error {
	h := make(http.Header)
	if opts.ConfigXML != nil {
		h.Set("Content-Type", "text/xml")
	} else {
		h.Set("Content-Length", "0")
	}
	if opts.ACL != "" {
		h.Set(b.prefix+"acl", string(opts.ACL))
	}
	resp, err := b.do(ctx, http.MethodPut, "", nil, opts.ConfigXML, h)
	if err != nil {
		return err
	}
	drain(resp.Body)
	return nil
}

// Remove deletes the bucket itself (DELETE on the bucket root). The bucket
// must be empty.
func (b *Bucket) Remove(ctx context.Context) error {
	return b.Delete(ctx, "")
}

// keyErr translates a 404 ServiceError into a KeyError for the given key,
// passing every other error through.
func (b *Bucket) keyErr(key string, err error) error {
	if statusIs(err, http.StatusNotFound) {
		return &KeyError{Key: key}
	}
	return err
}
