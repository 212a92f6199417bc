package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a provider failure for the retry policy.
type ErrorKind int

const (
	// KindTransient failures (rate limit, overload, timeout) may resolve on retry.
	KindTransient ErrorKind = iota
	// KindPermanent failures (bad key, malformed request, policy rejection) never will.
	KindPermanent
)

func (k ErrorKind) String() string {
	if k == KindTransient {
		return "transient"
	}
	return "permanent"
}

// Error is a classified provider failure.
type Error struct {
	Provider string
	Status   int
	Kind     ErrorKind
	Msg      string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Msg)
}

// apiError builds a classified error from an HTTP status and response body.
func apiError(providerID string, status int, body []byte) *Error {
	return &Error{
		Provider: providerID,
		Status:   status,
		Kind:     classifyStatus(status),
		Msg:      string(body),
	}
}

// classifyStatus maps an HTTP status to an error kind.
// 529 is Anthropic's overloaded status.
func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout, 529:
		return KindTransient
	default:
		return KindPermanent
	}
}

// Classify determines the retry behavior for any error returned by a provider.
// Timeouts count as transient; everything unrecognized (decode failures,
// connection refused, user cancellation) is permanent and reported immediately.
func Classify(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTransient
	}
	return KindPermanent
}
