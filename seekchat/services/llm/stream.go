package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	dataPrefix = "data:"

	// maxLineSize bounds a single stream line; records are small but search
	// results can inline long snippets.
	maxLineSize = 1 << 20
)

// LineStream is a single-pass cursor over response lines. *bufio.Scanner
// satisfies it.
type LineStream interface {
	Scan() bool
	Bytes() []byte
	Err() error
}

// NewLineStream splits r into lines without buffering the whole body. A line
// longer than maxLineSize is cut at maxLineSize and the rest of it is
// dropped, so it fails to decode like any other malformed line instead of
// ending the stream.
func NewLineStream(r io.Reader) LineStream {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

type lineReader struct {
	r    *bufio.Reader
	line []byte
	err  error
}

func (l *lineReader) Scan() bool {
	if l.err != nil {
		return false
	}
	l.line = l.line[:0]
	for {
		chunk, err := l.r.ReadSlice('\n')
		if room := maxLineSize - len(l.line); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			l.line = append(l.line, chunk...)
		}
		switch {
		case err == nil:
			l.line = bytes.TrimRight(l.line, "\r\n")
			return true
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			l.err = io.EOF
			l.line = bytes.TrimRight(l.line, "\r\n")
			return len(l.line) > 0
		default:
			l.err = err
			return false
		}
	}
}

func (l *lineReader) Bytes() []byte {
	return l.line
}

func (l *lineReader) Err() error {
	if errors.Is(l.err, io.EOF) {
		return nil
	}
	return l.err
}

// Delta is one decoded stream fragment.
type Delta interface {
	isDelta()
}

type TextDelta struct {
	Content string
}

type ThinkingDelta struct {
	Content string
}

// UnknownDelta carries fragment types this client does not render. Their
// content may be any JSON value.
type UnknownDelta struct {
	Type    string
	Content json.RawMessage
}

func (TextDelta) isDelta()     {}
func (ThinkingDelta) isDelta() {}
func (UnknownDelta) isDelta()  {}

type streamDelta struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

func (d streamDelta) variant() Delta {
	switch d.Type {
	case "text":
		return TextDelta{Content: d.text()}
	case "thinking":
		return ThinkingDelta{Content: d.text()}
	default:
		return UnknownDelta{Type: d.Type, Content: d.Content}
	}
}

// text is the content as a string; non-string content reads as "".
func (d streamDelta) text() string {
	var s string
	_ = json.Unmarshal(d.Content, &s)
	return s
}

// streamRecord keeps choices raw so an odd delta never costs the record its
// message_id.
type streamRecord struct {
	Choices   json.RawMessage `json:"choices"`
	MessageID MessageID       `json:"message_id"`
}

func (r streamRecord) delta() (streamDelta, bool) {
	var choices []struct {
		Delta streamDelta `json:"delta"`
	}
	if err := json.Unmarshal(r.Choices, &choices); err != nil || len(choices) == 0 {
		return streamDelta{}, false
	}
	return choices[0].Delta, true
}

// StreamDecoder accumulates an Answer from stream lines fed in order.
type StreamDecoder struct {
	text      strings.Builder
	thinking  strings.Builder
	messageID MessageID
	records   int
	skipped   int
	logger    *zap.Logger
}

func NewStreamDecoder(logger *zap.Logger) *StreamDecoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamDecoder{logger: logger}
}

// DecodeLine folds one line into the answer. Empty keep-alive lines and
// lines that are not valid records are dropped.
func (d *StreamDecoder) DecodeLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	if bytes.HasPrefix(line, []byte(dataPrefix)) {
		line = bytes.TrimLeft(line[len(dataPrefix):], " ")
	}

	var rec streamRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		d.skipped++
		d.logger.Debug("Failed to decode line", zap.ByteString("line", line), zap.Error(err))
		return
	}
	d.records++

	if sd, ok := rec.delta(); ok {
		switch delta := sd.variant().(type) {
		case TextDelta:
			d.text.WriteString(delta.Content)
		case ThinkingDelta:
			d.thinking.WriteString(delta.Content)
		case UnknownDelta:
			if delta.Type != "" {
				d.logger.Debug("Ignoring delta", zap.String("type", delta.Type))
			}
		}
	}
	if !rec.MessageID.IsZero() {
		d.messageID = rec.MessageID
	}
}

func (d *StreamDecoder) Answer() Answer {
	return Answer{
		Text:      d.text.String(),
		Thinking:  d.thinking.String(),
		MessageID: d.messageID,
	}
}

// Skipped reports how many non-empty lines could not be decoded.
func (d *StreamDecoder) Skipped() int {
	return d.skipped
}

// Records reports how many lines decoded to a record.
func (d *StreamDecoder) Records() int {
	return d.records
}

// Decode drains stream. Only read failures of the stream itself are
// returned; malformed lines never are.
func (d *StreamDecoder) Decode(stream LineStream) error {
	for stream.Scan() {
		d.DecodeLine(stream.Bytes())
	}
	return stream.Err()
}

// DecodeStream is NewStreamDecoder followed by Decode.
func DecodeStream(stream LineStream, logger *zap.Logger) (Answer, error) {
	d := NewStreamDecoder(logger)
	err := d.Decode(stream)
	return d.Answer(), err
}
