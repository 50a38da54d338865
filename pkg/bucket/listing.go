package bucket

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// iso8601Milli is the LastModified format in listing responses.
const iso8601Milli = "2006-01-02T15:04:05.000Z"

// listChunkSize is how much of the response body is read per pull.
const listChunkSize = 4096

// listingRecord matches the fixed field substructure of one listing record
// after the ownership sub-element is stripped. A mismatch is a protocol
// violation, never silently skipped.
var listingRecord = regexp.MustCompile(
	`^<Key>(.+?)</Key>` +
		`<LastModified>(.{24})</LastModified>` +
		`<ETag>(.+?)</ETag>` +
		`<Size>(\d+?)</Size>$`)

// keyUnescaper decodes XML text escapes the provider may apply to keys in
// listing output.
var keyUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

// Entry is one object listing record.
type Entry struct {
	// Key is the object key.
	Key string

	// Modified is the last-modified instant, UTC.
	Modified time.Time

	// ETag is the entity tag with wire-level quote escaping decoded.
	ETag string

	// Size is the object size in bytes.
	Size int64
}

// ListOptions filter a listing traversal.
type ListOptions struct {
	// Prefix restricts results to keys starting with this value.
	Prefix string

	// Marker restricts results to keys lexicographically greater than it.
	Marker string

	// MaxKeys limits the number of keys returned. Zero means the server
	// default.
	MaxKeys int

	// Delimiter groups keys sharing a prefix up to the delimiter.
	Delimiter string
}

func (o ListOptions) args() Args {
	var args Args
	if o.Prefix != "" {
		args = append(args, [2]string{"prefix", o.Prefix})
	}
	if o.Marker != "" {
		args = append(args, [2]string{"marker", o.Marker})
	}
	if o.MaxKeys > 0 {
		args = append(args, [2]string{"max-keys", strconv.Itoa(o.MaxKeys)})
	}
	if o.Delimiter != "" {
		args = append(args, [2]string{"delimiter", o.Delimiter})
	}
	return args
}

// List starts a listing traversal and returns its entry stream.
//
// The stream is lazy, finite, and non-restartable: entries are decoded as
// soon as each complete record arrives, without buffering the whole
// response. The underlying connection stays attached to the stream until it
// is exhausted; an abandoned stream must be closed by the caller.
func (b *Bucket) List(ctx context.Context, opts ListOptions) (*Listing, error) {
	resp, err := b.do(ctx, http.MethodGet, "", opts.args(), nil, nil)
	if err != nil {
		return nil, err
	}
	return newListing(resp.Body), nil
}

// Listing is a pull-based stream of listing entries.
//
// Usage follows the bufio.Scanner shape:
//
//	listing, err := bkt.List(ctx, opts)
//	...
//	defer listing.Close()
//	for listing.Next() {
//	    entry := listing.Entry()
//	    ...
//	}
//	if err := listing.Err(); err != nil { ... }
type Listing struct {
	body   io.ReadCloser
	buf    []byte
	chunk  []byte
	entry  Entry
	err    error
	done   bool
	closed bool
}

func newListing(body io.ReadCloser) *Listing {
	return &Listing{body: body, chunk: make([]byte, listChunkSize)}
}

// Next advances to the next entry. It returns false at end of stream or on
// error; check Err afterwards.
func (l *Listing) Next() bool {
	if l.done || l.err != nil {
		return false
	}
	for {
		entry, ok, err := l.extract()
		if err != nil {
			l.err = err
			l.stop()
			return false
		}
		if ok {
			l.entry = entry
			return true
		}

		n, err := l.body.Read(l.chunk)
		if n > 0 {
			l.buf = append(l.buf, l.chunk[:n]...)
			continue
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			// Trailing buffer content after the last record is the
			// document epilogue; under a well-formed response no partial
			// record remains.
			l.stop()
			return false
		}
		l.err = err
		l.stop()
		return false
	}
}

// Entry returns the entry produced by the last successful Next.
func (l *Listing) Entry() Entry {
	return l.entry
}

// Err returns the first error encountered during traversal, if any.
func (l *Listing) Err() error {
	return l.err
}

// Close releases the underlying connection. It is safe to call multiple
// times and after exhaustion.
func (l *Listing) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.done = true
	return l.body.Close()
}

func (l *Listing) stop() {
	l.done = true
	_ = l.Close()
}

// extract attempts to cut one complete record out of the accumulation
// buffer. It reports ok=false when no complete record is buffered yet.
func (l *Listing) extract() (Entry, bool, error) {
	const openTag, closeTag = "<Contents>", "</Contents>"

	end := bytes.Index(l.buf, []byte(closeTag))
	if end < 0 {
		return Entry{}, false, nil
	}
	start := bytes.Index(l.buf, []byte(openTag))
	if start < 0 || start > end {
		return Entry{}, false, &ParseError{Record: string(l.buf[:end+len(closeTag)])}
	}

	piece := string(l.buf[start+len(openTag) : end])
	l.buf = l.buf[end+len(closeTag):]

	// The ownership sub-block precedes the closing tag but is not part of
	// the fields of interest.
	fields := piece
	if i := strings.Index(piece, "<Owner>"); i >= 0 {
		fields = piece[:i]
	}

	m := listingRecord.FindStringSubmatch(fields)
	if m == nil {
		return Entry{}, false, &ParseError{Record: piece}
	}

	modified, err := time.Parse(iso8601Milli, m[2])
	if err != nil {
		return Entry{}, false, &ParseError{Record: piece}
	}
	size, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return Entry{}, false, &ParseError{Record: piece}
	}

	return Entry{
		Key:      keyUnescaper.Replace(m[1]),
		Modified: modified,
		ETag:     strings.ReplaceAll(m[3], "&quot;", `"`),
		Size:     size,
	}, true, nil
}
