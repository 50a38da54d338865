// Package bucket implements a client for S3-compatible object storage using
// AWS Signature Version 2 request signing.
//
// A Bucket is configured once with immutable credentials and an endpoint and
// is then safe for concurrent use; every operation builds, signs, and
// dispatches its own request. The only stateful surface is the Listing
// stream returned by List, which holds the response connection open until
// exhausted or closed.
package bucket

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/lakemoor/gostratus/pkg/sigv2"
)

// Provider identifies a storage provider wire profile: the well-known base
// URL template and the provider header prefix used in canonicalization and
// metadata headers.
type Provider string

const (
	// ProviderAWS is AWS S3 (https://s3.amazonaws.com/, x-amz-* headers).
	ProviderAWS Provider = "aws"

	// ProviderOSS is Aliyun OSS, which speaks the same wire protocol with
	// x-oss-* headers.
	ProviderOSS Provider = "oss"
)

// Base URLs and header prefixes per provider profile.
const (
	AWSBaseURL = "https://s3.amazonaws.com/"
	OSSBaseURL = "http://oss.aliyun.com/"

	AWSHeaderPrefix = sigv2.DefaultHeaderPrefix
	OSSHeaderPrefix = "x-oss-"
)

// Retry defaults. S3 documents HTTP 500 InternalError as a transient fault
// that clients should retry; both values are configuration, not invariants,
// and can be overridden for providers with different conventions.
const (
	DefaultMaxAttempts     = 10
	DefaultTransientStatus = http.StatusInternalServerError
)

// ACL is a canned access control list applied at put/copy/create time.
type ACL string

const (
	Private           ACL = "private"
	PublicRead        ACL = "public-read"
	PublicReadWrite   ACL = "public-read-write"
	AuthenticatedRead ACL = "authenticated-read"
)

// Transport dispatches a fully built, signed HTTP request and returns the
// response or a transport-level error. http.RoundTripper satisfies it.
//
// Runtime-specific transports (managed execution environments, test fakes)
// plug in here; the client never constructs its own connection handling.
// The transport must be safe for concurrent use if the Bucket is shared.
type Transport interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// Config configures a Bucket client.
//
// Name and the credential pair are immutable for the lifetime of the
// client. The secret key is only ever used to key signatures; it is never
// transmitted.
type Config struct {
	// Name is the bucket name (required).
	Name string

	// AccessKey is the public access identifier. Leave both AccessKey and
	// SecretKey empty for anonymous access to public buckets.
	AccessKey string

	// SecretKey is the private signing key. Required if AccessKey is set.
	SecretKey string

	// Provider selects the base URL template and header prefix.
	// Default: ProviderAWS.
	Provider Provider

	// BaseURL overrides the provider base URL for custom domains, e.g.
	// "https://files.example.com". The bucket name is not appended to an
	// explicit BaseURL; think of it as the prefix to which all calls are
	// made.
	BaseURL string

	// HeaderPrefix overrides the provider header prefix ("x-amz-" or
	// "x-oss-"). Rarely needed outside tests.
	HeaderPrefix string

	// Transport dispatches outbound requests. Default: http.DefaultTransport.
	Transport Transport

	// MaxAttempts bounds the retry loop for transient server errors.
	// Default: 10.
	MaxAttempts int

	// TransientStatus is the HTTP status treated as a retryable transient
	// fault. Default: 500.
	TransientStatus int

	// RateLimit is the maximum requests per second issued by this client,
	// counting retries. Zero means unlimited.
	RateLimit float64

	// Logger receives structured debug/warn logs. Default: zap.NewNop().
	Logger *zap.Logger
}

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "bucket config: " + e.Field + ": " + e.Message
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &ConfigError{Field: "Name", Message: "bucket name is required"}
	}
	if (c.AccessKey != "") != (c.SecretKey != "") {
		return &ConfigError{
			Field:   "AccessKey/SecretKey",
			Message: "both access key and secret key must be provided together",
		}
	}
	if c.MaxAttempts < 0 {
		return &ConfigError{Field: "MaxAttempts", Message: "must be >= 0"}
	}
	if c.RateLimit < 0 {
		return &ConfigError{Field: "RateLimit", Message: "must be >= 0"}
	}
	switch c.Provider {
	case "", ProviderAWS, ProviderOSS:
	default:
		return &ConfigError{Field: "Provider", Message: "unknown provider " + string(c.Provider)}
	}
	return nil
}

// baseURL resolves the endpoint root: an explicit BaseURL wins, otherwise
// the provider template plus the quoted bucket name.
func (c *Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	base := AWSBaseURL
	if c.Provider == ProviderOSS {
		base = OSSBaseURL
	}
	return base + sigv2.Quote(c.Name)
}

// headerPrefix resolves the provider header prefix.
func (c *Config) headerPrefix() string {
	if c.HeaderPrefix != "" {
		return c.HeaderPrefix
	}
	if c.Provider == ProviderOSS {
		return OSSHeaderPrefix
	}
	return AWSHeaderPrefix
}
