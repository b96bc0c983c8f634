package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"testing"

	httputils "seekchat/seekchat/utils/http"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{name: "nil error", err: nil, expected: KindOther},
		{name: "plain error", err: errors.New("boom"), expected: KindOther},
		{name: "deadline exceeded", err: context.DeadlineExceeded, expected: KindTimeout},
		{name: "idle timeout", err: fmt.Errorf("read stream: %w", ErrIdleTimeout), expected: KindTimeout},
		{name: "status error", err: &httputils.StatusError{StatusCode: 502, Status: "502 Bad Gateway"}, expected: KindHTTPStatus},
		{
			name:     "connection refused",
			err:      &url.Error{Op: "Post", URL: "https://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
			expected: KindTransport,
		},
		{name: "net timeout", err: &url.Error{Op: "Post", URL: "https://x", Err: timeoutErr{}}, expected: KindTimeout},
		{
			name:     "canceled by caller",
			err:      &url.Error{Op: "Post", URL: "https://x", Err: context.Canceled},
			expected: KindOther,
		},
		{name: "truncated body", err: fmt.Errorf("read stream: %w", io.ErrUnexpectedEOF), expected: KindTransport},
		{name: "request error keeps kind", err: &RequestError{Kind: KindTimeout, Attempts: 3, Err: errors.New("x")}, expected: KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyError(tt.err))
		})
	}
}

func TestRequestErrorMessage(t *testing.T) {
	err := &RequestError{Kind: KindHTTPStatus, Attempts: 3, Err: errors.New("bad status: 502")}
	assert.Equal(t, "chat completion failed after 3 attempt(s) (http_status): bad status: 502", err.Error())
	assert.Equal(t, "timeout", KindTimeout.String())
}
