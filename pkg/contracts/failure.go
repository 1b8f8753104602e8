package contracts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxBodyDetail caps how much of an error body a failure keeps
const maxBodyDetail = 200

// FailureKind is the closed set of ways a source fetch can fail
type FailureKind int

const (
	// AuthExhausted: quota spent or credentials rejected (401/402/403)
	AuthExhausted FailureKind = iota + 1
	// RateLimited: throttled (429), may carry a retry-after hint
	RateLimited
	// ServerError: upstream 5xx
	ServerError
	// NotFound: the source has no data for this event. Not a source failure.
	NotFound
	// Transport: network-level failure, transient and per-request
	Transport
)

func (k FailureKind) String() string {
	switch k {
	case AuthExhausted:
		return "auth_exhausted"
	case RateLimited:
		return "rate_limited"
	case ServerError:
		return "server_error"
	case NotFound:
		return "not_found"
	case Transport:
		return "transport"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Systemic reports whether the kind describes the health of the source
// itself rather than the single request
func (k FailureKind) Systemic() bool {
	return k == AuthExhausted || k == RateLimited || k == ServerError
}

// SourceFailure is the classified error returned by SourceAdapter.Fetch
type SourceFailure struct {
	Kind       FailureKind
	StatusCode int           // 0 when not HTTP
	RetryAfter time.Duration // 0 when no hint was given
	Err        error
}

func (f *SourceFailure) Error() string {
	msg := f.Kind.String()
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, f.StatusCode)
	}
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

func (f *SourceFailure) Unwrap() error {
	return f.Err
}

// NewFailure builds a failure of the given kind
func NewFailure(kind FailureKind, err error) *SourceFailure {
	return &SourceFailure{Kind: kind, Err: err}
}

// NotFoundf reports that a source has no data for an event
func NotFoundf(format string, args ...interface{}) *SourceFailure {
	return &SourceFailure{Kind: NotFound, Err: fmt.Errorf(format, args...)}
}

// AsFailure extracts a SourceFailure from err. Errors that were not
// classified by the adapter are treated as Transport failures.
func AsFailure(err error) *SourceFailure {
	if err == nil {
		return nil
	}
	var f *SourceFailure
	if errors.As(err, &f) {
		return f
	}
	return &SourceFailure{Kind: Transport, Err: err}
}

// ClassifyStatus maps a non-2xx HTTP status into a failure. body is kept
// for diagnostics and truncated.
func ClassifyStatus(status int, header http.Header, body []byte) *SourceFailure {
	f := &SourceFailure{
		StatusCode: status,
		Err:        errors.New(truncate(strings.TrimSpace(string(body)), maxBodyDetail)),
	}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusPaymentRequired, status == http.StatusForbidden:
		f.Kind = AuthExhausted
	case status == http.StatusTooManyRequests:
		f.Kind = RateLimited
		f.RetryAfter = ParseRetryAfter(header.Get("Retry-After"), time.Now())
	case status == http.StatusNotFound:
		f.Kind = NotFound
	case status >= 500:
		f.Kind = ServerError
		f.RetryAfter = ParseRetryAfter(header.Get("Retry-After"), time.Now())
	default:
		f.Kind = Transport
	}

	return f
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ParseRetryAfter parses a Retry-After header given either as seconds or
// as an HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}

	return 0
}
