package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"seekchat/seekchat/controllers"
	"seekchat/seekchat/services/llm"
	httputils "seekchat/seekchat/utils/http"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	sessions   int
	sessionErr error
	answers    []*llm.Answer
	err        error
	requests   []llm.PromptRequest
}

func (c *scriptedClient) CreateChatSession(ctx context.Context) (string, error) {
	if c.sessionErr != nil {
		return "", c.sessionErr
	}
	c.sessions++
	return fmt.Sprintf("s%d", c.sessions), nil
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.PromptRequest) (*llm.Answer, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

func runScript(t *testing.T, client *scriptedClient, input string) string {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	r := newREPL(controllers.NewChatController(client, nil, nil), nil, strings.NewReader(input), &out)
	r.greet(context.Background())
	require.NoError(t, r.run(context.Background()))
	return out.String()
}

func TestREPLSendsPromptAndRendersExchange(t *testing.T) {
	client := &scriptedClient{answers: []*llm.Answer{
		{Text: "Hello", Thinking: "greeting", MessageID: llm.NewMessageID("42")},
	}}

	out := runScript(t, client, "Hi\nexit\n")

	assert.Contains(t, out, "**You**: Hi")
	assert.Contains(t, out, "**Answer**: Hello")
	assert.Contains(t, out, "greeting")
	assert.Contains(t, out, "Goodbye!")
	require.Len(t, client.requests, 1)
	assert.Equal(t, "s1", client.requests[0].ChatSessionID)
}

func TestREPLTogglesApplyToNextPrompt(t *testing.T) {
	client := &scriptedClient{answers: []*llm.Answer{{Text: "ok", MessageID: llm.NewMessageID("1")}}}

	out := runScript(t, client, "/think\n/search\nquestion\n")

	assert.Contains(t, out, "think:on")
	assert.Contains(t, out, "search:on")
	require.Len(t, client.requests, 1)
	assert.True(t, client.requests[0].ThinkingEnabled)
	assert.True(t, client.requests[0].SearchEnabled)
}

func TestREPLNewConversation(t *testing.T) {
	client := &scriptedClient{}

	out := runScript(t, client, "/new\n/session\n")

	assert.Contains(t, out, "Starting a new conversation (s2)")
	assert.Contains(t, out, "session s2, parent none, 0 turn(s)")
}

func TestREPLWarnsOnDetachedAnswer(t *testing.T) {
	client := &scriptedClient{answers: []*llm.Answer{{Text: "no id"}}}

	out := runScript(t, client, "Hi\n")

	assert.Contains(t, out, "next prompt starts a new thread")
}

func TestREPLReportsFailures(t *testing.T) {
	client := &scriptedClient{err: &llm.RequestError{Kind: llm.KindTimeout, Attempts: 3, Err: llm.ErrIdleTimeout}}

	out := runScript(t, client, "Hi\n/history\n/bogus\n")

	assert.Contains(t, out, "Request timed out.")
	assert.Contains(t, out, "history needs --transcript-dsn")
	assert.Contains(t, out, "unknown command /bogus")
}

func TestREPLWithoutSession(t *testing.T) {
	client := &scriptedClient{sessionErr: llm.ErrNoChatSession}

	out := runScript(t, client, "Hi\n/session\n")

	assert.Contains(t, out, "No chat session")
	assert.Contains(t, out, "no chat session")
	assert.Empty(t, client.requests)
}

func TestDescribeError(t *testing.T) {
	statusErr := &llm.RequestError{
		Kind:     llm.KindHTTPStatus,
		Attempts: 3,
		Err:      &httputils.StatusError{StatusCode: 500, Status: "500 Internal Server Error"},
	}

	assert.True(t, strings.HasPrefix(describeError(statusErr), "HTTP error occurred: "))
	assert.Equal(t, "Request timed out.", describeError(fmt.Errorf("wrap: %w", llm.ErrIdleTimeout)))
	assert.True(t, strings.HasPrefix(describeError(errors.New("boom")), "Other error occurred: boom"))
	assert.True(t, strings.HasPrefix(describeError(llm.ErrNoChatSession), "No chat session"))
}
