package llm

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func decodeLines(t *testing.T, lines ...string) Answer {
	t.Helper()
	answer, err := DecodeStream(NewLineStream(strings.NewReader(strings.Join(lines, "\n"))), zaptest.NewLogger(t))
	require.NoError(t, err)
	return answer
}

func TestDecodeStream_HelloExample(t *testing.T) {
	answer := decodeLines(t,
		`data: {"choices":[{"delta":{"type":"text","content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"type":"text","content":"lo"}}],"message_id":"m1"}`,
	)

	assert.Equal(t, "Hello", answer.Text)
	assert.Equal(t, "m1", answer.MessageID.String())
	assert.Empty(t, answer.Thinking)
}

func TestDecodeStream_ConcatenatesTextInOrder(t *testing.T) {
	parts := []string{"The ", "quick ", "brown ", "fox", " ", "jumps", "."}
	var lines []string
	for _, p := range parts {
		lines = append(lines, `data: {"choices":[{"delta":{"type":"text","content":`+quote(p)+`}}]}`)
	}

	answer := decodeLines(t, lines...)
	assert.Equal(t, strings.Join(parts, ""), answer.Text)
}

func TestDecodeStream_TextAndThinkingStaySeparate(t *testing.T) {
	answer := decodeLines(t,
		`data: {"choices":[{"delta":{"type":"thinking","content":"let me "}}]}`,
		`data: {"choices":[{"delta":{"type":"text","content":"Four"}}]}`,
		`data: {"choices":[{"delta":{"type":"thinking","content":"think"}}]}`,
		`data: {"choices":[{"delta":{"type":"text","content":"."}}]}`,
	)

	assert.Equal(t, "Four.", answer.Text)
	assert.Equal(t, "let me think", answer.Thinking)
}

func TestDecodeStream_MalformedLinesAreSkipped(t *testing.T) {
	answer := decodeLines(t,
		`data: {"choices":[{"delta":{"type":"text","content":"a"}}]}`,
		`data: {"choices":[{"delta":{"type":"text","cont`,
		`data: [DONE]`,
		`: keep-alive comment`,
		`data: {"choices":[{"delta":{"type":"text","content":"b"}}],"message_id":7}`,
		`data: "just a string"`,
	)

	assert.Equal(t, "ab", answer.Text)
	assert.Equal(t, "7", answer.MessageID.String())
}

func TestDecodeStream_LastMessageIDWins(t *testing.T) {
	answer := decodeLines(t,
		`data: {"choices":[],"message_id":"first"}`,
		`data: {"choices":[{"delta":{"type":"text","content":"x"}}],"message_id":"second"}`,
		`data: {"choices":[{"delta":{"type":"text","content":"y"}}]}`,
		`data: {"choices":[],"message_id":null}`,
	)

	assert.Equal(t, "xy", answer.Text)
	assert.Equal(t, "second", answer.MessageID.String())
}

func TestDecodeStream_UnknownDeltaTypesIgnored(t *testing.T) {
	answer := decodeLines(t,
		`data: {"choices":[{"delta":{"type":"search_result","content":"http://x"}}]}`,
		`data: {"choices":[{"delta":{"content":"untyped"}}]}`,
		`data: {"choices":[{"delta":{"type":"text","content":"ok"}}]}`,
	)

	assert.Equal(t, "ok", answer.Text)
	assert.Empty(t, answer.Thinking)
}

func TestDecodeStream_AcceptsLinesWithoutPrefix(t *testing.T) {
	answer := decodeLines(t,
		`{"choices":[{"delta":{"type":"text","content":"raw"}}],"message_id":"m9"}`,
		"data: {\"choices\":[{\"delta\":{\"type\":\"text\",\"content\":\"!\"}}]}\r",
	)

	assert.Equal(t, "raw!", answer.Text)
	assert.Equal(t, "m9", answer.MessageID.String())
}

func TestDecodeStream_EmptyStream(t *testing.T) {
	answer := decodeLines(t)
	assert.Equal(t, Answer{}, answer)
	assert.True(t, answer.MessageID.IsZero())
}

type brokenStream struct {
	lines []string
	i     int
	err   error
}

func (s *brokenStream) Scan() bool {
	if s.i >= len(s.lines) {
		return false
	}
	s.i++
	return true
}

func (s *brokenStream) Bytes() []byte { return []byte(s.lines[s.i-1]) }
func (s *brokenStream) Err() error    { return s.err }

func TestDecodeStream_ReadErrorIsReturned(t *testing.T) {
	readErr := errors.New("connection reset by peer")
	stream := &brokenStream{
		lines: []string{`data: {"choices":[{"delta":{"type":"text","content":"partial"}}]}`},
		err:   readErr,
	}

	answer, err := DecodeStream(stream, nil)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, "partial", answer.Text)
}

func TestDecodeStream_OversizedLineIsSkipped(t *testing.T) {
	huge := `data: {"choices":[{"delta":{"type":"search","content":"` + strings.Repeat("x", 2*maxLineSize) + `"}}]}`
	decoder := NewStreamDecoder(zaptest.NewLogger(t))
	body := strings.Join([]string{
		`data: {"choices":[{"delta":{"type":"text","content":"Hel"}}]}`,
		huge,
		`data: {"choices":[{"delta":{"type":"text","content":"lo"}}],"message_id":"m1"}`,
	}, "\n")

	require.NoError(t, decoder.Decode(NewLineStream(strings.NewReader(body))))

	answer := decoder.Answer()
	assert.Equal(t, "Hello", answer.Text)
	assert.Equal(t, "m1", answer.MessageID.String())
	assert.Equal(t, 1, decoder.Skipped())
	assert.Equal(t, 2, decoder.Records())
}

func TestDecodeStream_NonStringContentKeepsMessageID(t *testing.T) {
	answer := decodeLines(t,
		`data: {"choices":[{"delta":{"type":"text","content":"Hi"}}]}`,
		`data: {"choices":[{"delta":{"type":"ping","content":{"a":1}}}],"message_id":"m2"}`,
		`data: {"choices":{"odd":true},"message_id":"m3"}`,
		`data: {"choices":[{"delta":{"type":"text","content":["x"]}}]}`,
	)

	assert.Equal(t, "Hi", answer.Text)
	assert.Equal(t, "m3", answer.MessageID.String())
}

func TestLineStream(t *testing.T) {
	stream := NewLineStream(strings.NewReader("a\r\n\nb\nlast"))

	var lines []string
	for stream.Scan() {
		lines = append(lines, string(stream.Bytes()))
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, []string{"a", "", "b", "last"}, lines)
}

func TestLineStreamReportsReadError(t *testing.T) {
	readErr := errors.New("connection reset by peer")
	stream := NewLineStream(io.MultiReader(strings.NewReader("one\n"), iotest.ErrReader(readErr)))

	require.True(t, stream.Scan())
	assert.Equal(t, "one", string(stream.Bytes()))
	assert.False(t, stream.Scan())
	assert.ErrorIs(t, stream.Err(), readErr)
}

func TestDeltaVariants(t *testing.T) {
	assert.Equal(t, TextDelta{Content: "a"}, streamDelta{Type: "text", Content: json.RawMessage(`"a"`)}.variant())
	assert.Equal(t, ThinkingDelta{Content: "b"}, streamDelta{Type: "thinking", Content: json.RawMessage(`"b"`)}.variant())
	assert.Equal(t, TextDelta{}, streamDelta{Type: "text", Content: json.RawMessage(`{"a":1}`)}.variant())
	assert.Equal(t,
		UnknownDelta{Type: "tool", Content: json.RawMessage(`{"c":1}`)},
		streamDelta{Type: "tool", Content: json.RawMessage(`{"c":1}`)}.variant())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
