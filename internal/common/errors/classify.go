package errors

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// IsTimeout reports whether a failure looks like a timeout: an explicit timeout
// status, a deadline or ETIMEDOUT error, or a message that says so.
func IsTimeout(err error, status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout {
		return true
	}
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "aborted")
}

// Classify maps a transport or endpoint failure onto the taxonomy. status is the
// upstream HTTP status when one is known, else 0. Already normalized errors pass through.
func Classify(err error, status int) *NormalizedError {
	var ne *NormalizedError
	if stderrors.As(err, &ne) {
		return ne
	}

	switch {
	case status == http.StatusTooManyRequests:
		return NewRateLimitError(err)
	case IsTimeout(err, status):
		return NewTimeoutError(err)
	case status >= 500:
		return NewUpstreamError(status, err)
	default:
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		return NewRequestFailedError(status, msg, err)
	}
}
