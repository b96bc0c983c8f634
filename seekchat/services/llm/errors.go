package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	httputils "seekchat/seekchat/utils/http"
)

var (
	// ErrNoChatSession is returned when the service did not hand out a
	// conversation handle.
	ErrNoChatSession = errors.New("no chat session")

	// ErrIdleTimeout means the response stream stalled longer than the
	// per-attempt timeout.
	ErrIdleTimeout = errors.New("stream idle timeout")
)

// ErrorKind groups request failures for presentation.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindTransport
	KindTimeout
	KindHTTPStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "other"
	}
}

// RequestError is the failure of a completion after its retry budget.
type RequestError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("chat completion failed after %d attempt(s) (%s): %v", e.Attempts, e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a request failure onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}

	if errors.Is(err, ErrIdleTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	// caller gave up; not a network fault
	if errors.Is(err, context.Canceled) {
		return KindOther
	}

	var statusErr *httputils.StatusError
	if errors.As(err, &statusErr) {
		return KindHTTPStatus
	}

	// url.Error and net.OpError both land here
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindTransport
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return KindTransport
	}
	return KindOther
}
