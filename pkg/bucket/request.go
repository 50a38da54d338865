package bucket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lakemoor/gostratus/pkg/sigv2"
)

// rfc1123GMT is the fixed Date header format mandated by the protocol.
// Equivalent to http.TimeFormat; named here because the same instant also
// participates in the canonical string.
const rfc1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

// newRequest assembles one signed request attempt.
//
// Signatures are single-use per exact header set: the canonical string
// includes the Date header, so every attempt gets a fresh Date and a fresh
// signature. Caller headers are cloned, never mutated.
func (b *Bucket) newRequest(ctx context.Context, method, key string, args Args, body []byte, headers http.Header) (*http.Request, error) {
	h := headers.Clone()
	if h == nil {
		h = make(http.Header)
	}
	if body != nil && h.Get("Content-MD5") == "" {
		h.Set("Content-MD5", sigv2.ContentMD5(body))
	}
	if h.Get("Date") == "" {
		h.Set("Date", b.now().UTC().Format(rfc1123GMT))
	}
	if h.Get("Authorization") == "" && b.accessKey != "" {
		canonical := sigv2.Canonical(method, h, sigv2.CanonicalResource(b.name, key), "", b.prefix)
		h.Set("Authorization", sigv2.Authorization(b.accessKey, b.secretKey, canonical))
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.buildURL(key, args, argSepList), reader)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", key, err)
	}
	req.Header = h
	return req, nil
}

// do executes a request with bounded retries on transient server errors.
//
// A response with the configured transient status (500 by default) is
// drained and retried with a freshly signed request, up to MaxAttempts.
// Exhausting the budget returns ErrRetryExhausted. Any other non-2xx
// response is parsed into a ServiceError. A 2xx response is returned with
// its body open; the caller owns closing it.
func (b *Bucket) do(ctx context.Context, method, key string, args Args, body []byte, headers http.Header) (*http.Response, error) {
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := b.newRequest(ctx, method, key, args, body, headers)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := b.transport.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
		}

		b.logger.Debug("request dispatched",
			zap.String("method", method),
			zap.String("key", key),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", time.Since(start)))

		if resp.StatusCode == b.transientStatus {
			drain(resp.Body)
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		return nil, newServiceError(resp)
	}

	b.logger.Warn("transient server errors exhausted retry budget",
		zap.String("method", method),
		zap.String("key", key),
		zap.Int("attempts", b.maxAttempts))
	return nil, fmt.Errorf("%s %q after %d attempts: %w", method, key, b.maxAttempts, ErrRetryExhausted)
}

// drain consumes and closes a response body so the underlying connection
// can be reused.
func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
