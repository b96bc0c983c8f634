// seekchat/services/llm/deepseek_client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	httputils "seekchat/seekchat/utils/http"
	"seekchat/seekchat/utils/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

type Options struct {
	CompletionURL string
	SessionURL    string
	Headers       map[string]string
	Jar           http.CookieJar

	// Timeout bounds each attempt: dial, TLS, response headers, and any
	// silence while the body streams.
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration

	// HTTPClient replaces the default transport. Jar is still applied.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DeepSeekClient talks to the web chat API with cookie + header auth.
type DeepSeekClient struct {
	completionURL string
	sessionURL    string
	headers       map[string]string
	httpClient    *http.Client
	timeout       time.Duration
	maxAttempts   int
	retryDelay    time.Duration
	logger        *zap.Logger

	// timer drives the wait between attempts; nil uses a real timer.
	timer backoff.Timer
}

func NewDeepSeekClient(opts Options) *DeepSeekClient {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	var client *http.Client
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	} else {
		client = newHTTPClient(opts.Timeout)
	}
	if opts.Jar != nil {
		client.Jar = opts.Jar
	}

	return &DeepSeekClient{
		completionURL: opts.CompletionURL,
		sessionURL:    opts.SessionURL,
		headers:       opts.Headers,
		httpClient:    client,
		timeout:       opts.Timeout,
		maxAttempts:   opts.MaxAttempts,
		retryDelay:    opts.RetryDelay,
		logger:        logging.OrNop(opts.Logger),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Complete sends one prompt and decodes the streamed answer. The whole
// POST-and-decode is retried on any failure; text from a failed attempt is
// discarded.
func (c *DeepSeekClient) Complete(ctx context.Context, req PromptRequest) (*Answer, error) {
	defer logging.LogDuration(ctx, "deepseek_complete")()
	start := time.Now()

	c.logger.Info("Sending chat completion",
		zap.String("url", c.completionURL),
		zap.String("chat_session_id", req.ChatSessionID),
		zap.String("parent_message_id", req.ParentMessageID.String()),
		zap.Bool("thinking_enabled", req.ThinkingEnabled),
		zap.Bool("search_enabled", req.SearchEnabled),
		zap.String("trace_id", logging.TraceID(ctx)),
	)

	var (
		answer   Answer
		attempts int
	)
	operation := func() error {
		attempts++
		a, err := c.attempt(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		answer = a
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Chat completion attempt failed, retrying",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Duration("wait", wait),
			zap.Stringer("kind", ClassifyError(err)),
			zap.Error(err),
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, c.timer); err != nil {
		reqErr := &RequestError{Kind: ClassifyError(err), Attempts: attempts, Err: err}
		c.logger.Error("Chat completion failed", zap.Stringer("kind", reqErr.Kind), zap.Int("attempts", attempts), zap.Error(err))
		return nil, reqErr
	}

	c.logger.Info("Chat completion finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("attempts", attempts),
		zap.Int("text_len", len(answer.Text)),
		zap.Int("thinking_len", len(answer.Thinking)),
		zap.String("message_id", answer.MessageID.String()),
	)
	return &answer, nil
}

func (c *DeepSeekClient) attempt(ctx context.Context, req PromptRequest) (Answer, error) {
	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	body, err := httputils.PostStream(attemptCtx, c.httpClient, c.completionURL, c.headers, req)
	if err != nil {
		return Answer{}, err
	}
	defer body.Close()

	idle := newIdleReader(body, c.timeout, func() { cancel(ErrIdleTimeout) })
	defer idle.stop()

	decoder := NewStreamDecoder(c.logger)
	if err := decoder.Decode(NewLineStream(idle)); err != nil {
		if errors.Is(context.Cause(attemptCtx), ErrIdleTimeout) {
			return Answer{}, fmt.Errorf("read stream: %w", ErrIdleTimeout)
		}
		return Answer{}, fmt.Errorf("read stream: %w", err)
	}
	if decoder.Records() == 0 {
		c.logger.Warn("Stream ended without any records", zap.Int("skipped", decoder.Skipped()))
	}
	return decoder.Answer(), nil
}

// CreateChatSession opens a remote conversation and returns its id. It is
// attempted once: the service may have created the session even when the
// response is lost.
func (c *DeepSeekClient) CreateChatSession(ctx context.Context) (string, error) {
	defer logging.LogDuration(ctx, "deepseek_create_chat_session")()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := httputils.PostJSON(ctx, c.httpClient, c.sessionURL, c.headers, map[string]interface{}{"character_id": nil})
	if err != nil {
		c.logger.Error("Request error while creating chat session", zap.Stringer("kind", ClassifyError(err)), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrNoChatSession, err)
	}

	id := gjson.GetBytes(body, "data.biz_data.id")
	if !id.Exists() || id.String() == "" {
		c.logger.Error("Chat session id missing from response",
			zap.String("code", gjson.GetBytes(body, "code").String()),
			zap.String("msg", gjson.GetBytes(body, "msg").String()),
		)
		return "", ErrNoChatSession
	}

	c.logger.Info("Obtained chat session", zap.String("chat_session_id", id.String()))
	return id.String(), nil
}

// idleReader fires onIdle when no bytes arrive for timeout.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
}

func newIdleReader(r io.Reader, timeout time.Duration, onIdle func()) *idleReader {
	return &idleReader{r: r, timeout: timeout, timer: time.AfterFunc(timeout, onIdle)}
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

func (r *idleReader) stop() {
	r.timer.Stop()
}
