package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// StatusError reports a non-2xx response from a search adapter.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search adapter returned status %d", e.Code)
}

// Class buckets a failure for the worker's retry decision.
type Class int

const (
	// ClassPermanent covers 4xx responses, malformed payloads and anything
	// unclassified. Unknown failure modes are treated as permanent so they
	// can never retry forever.
	ClassPermanent Class = iota
	// ClassTransient covers timeouts, connection resets, 5xx and 429.
	ClassTransient
)

// Classify decides whether an error is worth retrying.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == 429 || statusErr.Code >= 500 {
			return ClassTransient
		}
		return ClassPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return ClassTransient
	}

	var jsonErr *json.SyntaxError
	if errors.As(err, &jsonErr) {
		return ClassPermanent
	}
	return ClassPermanent
}
