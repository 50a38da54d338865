// Package config loads bucket client configuration from a YAML file, the
// environment, and the AWS default credential chain.
//
// Resolution order for each setting:
//  1. Config file value (when a file is given)
//  2. Environment variable (STRATUS_* by default)
//  3. For the credential pair only: the AWS SDK default chain (env,
//     shared credentials file, profile, instance metadata)
//
// Explicit values always win over the chain. Everything else defaults to
// the zero value, letting bucket.New apply its own defaults.
package config

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/lakemoor/gostratus/pkg/bucket"
)

// DefaultEnvPrefix is the environment variable prefix, e.g.
// STRATUS_BUCKET, STRATUS_ACCESS_KEY.
const DefaultEnvPrefix = "STRATUS"

// Settings is the raw on-disk/env configuration shape.
type Settings struct {
	// Bucket is the bucket name.
	Bucket string `mapstructure:"bucket"`

	// Provider is the wire profile: "aws" (default) or "oss".
	Provider string `mapstructure:"provider"`

	// BaseURL overrides the provider base URL for custom domains.
	BaseURL string `mapstructure:"base_url"`

	// AccessKey and SecretKey are the explicit credential pair. When
	// absent, the AWS default credential chain is consulted.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Profile selects a shared-config profile for the credential chain.
	Profile string `mapstructure:"profile"`

	// MaxAttempts bounds transient-error retries. Zero uses the client
	// default.
	MaxAttempts int `mapstructure:"max_attempts"`

	// TransientStatus is the retryable HTTP status. Zero uses the client
	// default.
	TransientStatus int `mapstructure:"transient_status"`

	// RateLimit is the maximum requests per second. Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// ResponseTimeout bounds how long to wait for response headers per
	// request. Zero applies no timeout beyond the transport's own.
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
}

// Option customizes Load.
type Option func(*loader)

type loader struct {
	file      string
	envPrefix string
}

// WithFile points Load at a YAML config file. Without it only the
// environment and the credential chain are consulted.
func WithFile(path string) Option {
	return func(l *loader) { l.file = path }
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) { l.envPrefix = prefix }
}

// settingsDefaults registers every key with viper so environment-only
// values survive Unmarshal. Defaults are typed zeros; bucket.New applies
// the real defaults.
var settingsDefaults = map[string]any{
	"bucket":           "",
	"provider":         "",
	"base_url":         "",
	"access_key":       "",
	"secret_key":       "",
	"profile":          "",
	"max_attempts":     0,
	"transient_status": 0,
	"rate_limit":       0.0,
	"response_timeout": time.Duration(0),
}

// Load resolves a bucket.Config from file, environment, and credential
// chain. The result is validated.
func Load(ctx context.Context, opts ...Option) (*bucket.Config, error) {
	l := &loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}

	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, def := range settingsDefaults {
		v.SetDefault(key, def)
	}

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.file, err)
		}
	}

	var s Settings
	decodeDurations := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&s, decodeDurations); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := resolveCredentials(ctx, &s); err != nil {
		return nil, err
	}

	cfg := &bucket.Config{
		Name:            s.Bucket,
		AccessKey:       s.AccessKey,
		SecretKey:       s.SecretKey,
		Provider:        bucket.Provider(s.Provider),
		BaseURL:         s.BaseURL,
		MaxAttempts:     s.MaxAttempts,
		TransientStatus: s.TransientStatus,
		RateLimit:       s.RateLimit,
		Transport:       transportFor(s.ResponseTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveCredentials fills the credential pair from the AWS SDK default
// chain when not set explicitly. An explicit pair is routed through a
// static provider so both paths normalize identically.
func resolveCredentials(ctx context.Context, s *Settings) error {
	var opts []func(*awsconfig.LoadOptions) error
	if s.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(s.Profile))
	}
	if s.AccessKey != "" && s.SecretKey != "" {
		static := credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(static))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load credential chain: %w", err)
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		// No credentials anywhere in the chain. Anonymous access to public
		// buckets is still valid, so leave the pair empty.
		if s.AccessKey == "" {
			return nil
		}
		return fmt.Errorf("resolve credentials: %w", err)
	}
	s.AccessKey = creds.AccessKeyID
	s.SecretKey = creds.SecretAccessKey
	return nil
}

// transportFor builds the outbound transport, applying a response-header
// timeout when configured. Nil means the client default transport.
func transportFor(timeout time.Duration) bucket.Transport {
	if timeout <= 0 {
		return nil
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = timeout
	return t
}
