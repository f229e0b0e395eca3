package downloader

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jrauso/mashup-maker/internal/domain"
)

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	// KindFatal marks failures that will not succeed on retry, such as
	// removed or region-locked sources.
	KindFatal ErrorKind = iota

	// KindRetryable marks transient failures: throttling, expired
	// signatures and network drops.
	KindRetryable
)

// FetchError describes a failed download attempt for a single source.
type FetchError struct {
	Source domain.Source
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source.DisplayTitle(), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could plausibly succeed.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindRetryable
}

// retryableFragments are error strings from yt-dlp and HTTP responses
// that indicate a transient failure rather than a broken source.
var retryableFragments = []string{
	"403",
	"429",
	"500",
	"502",
	"503",
	"504",
	"rate limit",
	"rate-limit",
	"too many requests",
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"temporarily unavailable",
	"try again",
}

// Classify wraps err in a FetchError, deciding whether the failure is
// worth retrying. An error that already is a FetchError passes through
// unchanged.
func Classify(source domain.Source, err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	kind := KindFatal
	var netErr net.Error
	switch {
	case errors.As(err, &netErr):
		kind = KindRetryable
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindRetryable
	default:
		msg := strings.ToLower(err.Error())
		for _, fragment := range retryableFragments {
			if strings.Contains(msg, fragment) {
				kind = KindRetryable
				break
			}
		}
	}

	return &FetchError{Source: source, Kind: kind, Err: err}
}
