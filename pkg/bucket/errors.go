package bucket

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors for bucket operations.
var (
	// ErrNotFound indicates the requested key (or bucket) does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrRetryExhausted indicates the server kept reporting transient
	// errors for every attempt. This is an environment failure, not a
	// protocol error: sustained 500s mean the provider is down or the
	// endpoint is misconfigured.
	ErrRetryExhausted = errors.New("retry budget exhausted")
)

// KeyError reports a missing object key. It unwraps to ErrNotFound so
// callers can use IsNotFound for existence checks.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key not found: %q", e.Key)
}

func (e *KeyError) Unwrap() error {
	return ErrNotFound
}

// maxMessageLen bounds the server message carried in a ServiceError.
const maxMessageLen = 100

// ServiceError is a structured protocol error parsed from a non-success
// response. It always carries the status code; Message and Reason are
// populated best-effort from the error body, and ReadErr records a failure
// to read that body.
type ServiceError struct {
	// StatusCode is the HTTP status of the failed response.
	StatusCode int

	// Reason is the HTTP status text.
	Reason string

	// Message is the server's <Message> element, truncated to 100 bytes
	// with a trailing ellipsis when longer. Empty if the body had none.
	Message string

	// FullMessage is the untruncated server message.
	FullMessage string

	// ReadErr is set when the error body could not be read.
	ReadErr error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "HTTP error"
	}
	var extra []string
	if e.StatusCode != 0 {
		extra = append(extra, fmt.Sprintf("code=%d", e.StatusCode))
	}
	if e.Reason != "" {
		extra = append(extra, fmt.Sprintf("reason=%q", e.Reason))
	}
	if e.ReadErr != nil {
		extra = append(extra, fmt.Sprintf("read_error=%v", e.ReadErr))
	}
	if len(extra) > 0 {
		return msg + " (" + strings.Join(extra, ", ") + ")"
	}
	return msg
}

// newServiceError builds a ServiceError from a failed response, consuming
// and closing its body. Errors without a parseable <Message> element still
// produce a ServiceError with the diagnostic fields populated.
func newServiceError(resp *http.Response) *ServiceError {
	se := &ServiceError{
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
	}
	if resp.Body == nil {
		return se
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		se.ReadErr = err
		return se
	}

	body := string(data)
	begin := strings.Index(body, "<Message>")
	end := strings.Index(body, "</Message>")
	if begin < 0 || end < 0 || end < begin {
		return se
	}
	se.FullMessage = body[begin+len("<Message>") : end]
	se.Message = se.FullMessage
	if len(se.Message) > maxMessageLen {
		se.Message = se.Message[:maxMessageLen] + "..."
	}
	return se
}

// ParseError reports a malformed listing record. The listing stream cannot
// recover mid-corruption; the error is fatal to the stream.
type ParseError struct {
	// Record is the offending record text.
	Record string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed listing record: %q", e.Record)
}

// IsNotFound returns true if the error indicates a missing key or bucket.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryExhausted returns true if the error indicates the transient-error
// retry budget was exhausted.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

// statusIs reports whether err is a ServiceError with the given status.
func statusIs(err error, status int) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.StatusCode == status
}
