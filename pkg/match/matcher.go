// Package match filters object listing streams with glob patterns using
// doublestar semantics, deriving static key prefixes so traversals can be
// narrowed server-side before filtering client-side.
package match

import (
	"errors"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lakemoor/gostratus/pkg/bucket"
)

// Errors returned by Matcher construction.
var (
	// ErrNoIncludes is returned when no include patterns are provided.
	ErrNoIncludes = errors.New("at least one include pattern is required")

	// ErrInvalidPattern is returned when a pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// PatternError wraps pattern-related errors with the offending pattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Config configures a Matcher.
type Config struct {
	// Includes are glob patterns an object key must match (at least one).
	// Required.
	Includes []string

	// Excludes are glob patterns an object key must not match (any).
	Excludes []string

	// IncludeHidden controls whether keys with a path segment starting
	// with '.' are matched. Default: false.
	IncludeHidden bool
}

// Matcher evaluates include/exclude glob patterns against object keys.
// Safe for concurrent use after construction.
type Matcher struct {
	includes      []string
	excludes      []string
	prefixes      []string
	includeHidden bool
}

// New creates a Matcher, validating every pattern.
func New(cfg Config) (*Matcher, error) {
	if len(cfg.Includes) == 0 {
		return nil, ErrNoIncludes
	}
	for _, p := range cfg.Includes {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p, Err: ErrInvalidPattern}
		}
	}
	for _, p := range cfg.Excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p, Err: ErrInvalidPattern}
		}
	}
	return &Matcher{
		includes:      append([]string{}, cfg.Includes...),
		excludes:      append([]string{}, cfg.Excludes...),
		prefixes:      DerivePrefixes(cfg.Includes),
		includeHidden: cfg.IncludeHidden,
	}, nil
}

// Match reports whether key matches at least one include pattern and no
// exclude pattern. Keys are matched as-is: object keys are opaque strings
// where any character is valid.
func (m *Matcher) Match(key string) bool {
	if !m.includeHidden && isHidden(key) {
		return false
	}
	matched := false
	for _, p := range m.includes {
		if ok, _ := doublestar.Match(p, key); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, p := range m.excludes {
		if ok, _ := doublestar.Match(p, key); ok {
			return false
		}
	}
	return true
}

// Prefixes returns deduplicated static prefixes derived from the include
// patterns, usable as ListOptions.Prefix values to narrow listings. An
// empty string means at least one pattern needs a full traversal.
func (m *Matcher) Prefixes() []string {
	return m.prefixes
}

// isHidden reports whether any path segment of key starts with a dot.
func isHidden(key string) bool {
	for _, seg := range strings.Split(key, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// Filter wraps a listing stream, yielding only entries whose keys match.
// Closing the filtered stream closes the underlying one.
func (m *Matcher) Filter(l *bucket.Listing) *FilteredListing {
	return &FilteredListing{listing: l, matcher: m}
}

// FilteredListing is a listing stream with non-matching entries skipped.
type FilteredListing struct {
	listing *bucket.Listing
	matcher *Matcher
}

// Next advances to the next matching entry.
func (f *FilteredListing) Next() bool {
	for f.listing.Next() {
		if f.matcher.Match(f.listing.Entry().Key) {
			return true
		}
	}
	return false
}

// Entry returns the entry produced by the last successful Next.
func (f *FilteredListing) Entry() bucket.Entry {
	return f.listing.Entry()
}

// Err returns the first error encountered by the underlying stream.
func (f *FilteredListing) Err() error {
	return f.listing.Err()
}

// Close releases the underlying stream.
func (f *FilteredListing) Close() error {
	return f.listing.Close()
}
