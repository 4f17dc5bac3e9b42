// Package sse decodes the backend's framed streaming responses into typed
// events. Frames are separated by a blank line; payload lines carry a
// "data:" marker followed by JSON.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Kind discriminates the closed set of event types a channel can emit.
type Kind int

// Event kinds. A channel emits zero or more chunks followed by exactly one
// done or error event.
const (
	KindChunk Kind = iota
	KindDone
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindDone:
		return "done"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one decoded frame. Content is set for chunks, the count fields
// for done events, Message for errors.
type Event struct {
	Kind             Kind
	Content          string
	TokensUsed       int
	TokensRemaining  int
	CreditsUsed      int
	CreditsRemaining int
	Message          string
}

// Terminal reports whether the event ends a channel's logical stream.
func (e Event) Terminal() bool {
	return e.Kind != KindChunk
}

// ErrorEvent builds a synthetic error event for transport failures.
func ErrorEvent(message string) Event {
	return Event{Kind: KindError, Message: message}
}

const dataMarker = "data:"

// maxFrameSize bounds a single frame; chunks are small, this is headroom.
const maxFrameSize = 1 << 20

// Decoder turns a raw byte stream into a sequence of events. It never
// assumes a network read boundary aligns with a frame boundary: partial
// data is carried over until the closing blank line arrives.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a Decoder reading frames from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxFrameSize)
	sc.Split(scanFrames)
	return &Decoder{scanner: sc}
}

// Next returns the next decoded event. It returns io.EOF when the
// underlying stream ends, or the transport's read error. Malformed or
// unknown frames are logged and skipped; they never end the stream.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		payload, ok := framePayload(d.scanner.Bytes())
		if !ok {
			// Comment or keepalive frame with no data lines.
			continue
		}
		ev, ok := parseEvent(payload)
		if !ok {
			continue
		}
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// scanFrames is a bufio.SplitFunc tokenizing on blank-line frame
// boundaries, accepting both LF and CRLF line endings.
func scanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case lf >= 0 && (crlf < 0 || lf < crlf):
		return lf + 2, data[:lf], nil
	case crlf >= 0:
		return crlf + 4, data[:crlf], nil
	}

	if atEOF {
		// Trailing data without a closing delimiter still forms a frame.
		return len(data), data, nil
	}
	return 0, nil, nil
}

// framePayload joins the frame's data lines into a single payload. Frames
// without a data line (comments, keepalives) report ok=false.
func framePayload(frame []byte) (string, bool) {
	var parts []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, dataMarker) {
			continue
		}
		parts = append(parts, strings.TrimSpace(line[len(dataMarker):]))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// parseEvent decodes one JSON payload into an Event. Malformed payloads
// and unknown type tags are dropped with a warning.
func parseEvent(payload string) (Event, bool) {
	if payload == "" {
		return Event{}, false
	}
	if !gjson.Valid(payload) {
		log.Warn().Str("payload", truncate(payload, 200)).Msg("dropping malformed stream frame")
		return Event{}, false
	}

	parsed := gjson.Parse(payload)
	switch parsed.Get("type").String() {
	case "chunk":
		return Event{Kind: KindChunk, Content: parsed.Get("content").String()}, true
	case "done":
		return Event{
			Kind:             KindDone,
			TokensUsed:       int(parsed.Get("tokens_used").Int()),
			TokensRemaining:  int(parsed.Get("tokens_remaining").Int()),
			CreditsUsed:      int(parsed.Get("credits_used").Int()),
			CreditsRemaining: int(parsed.Get("credits_remaining").Int()),
		}, true
	case "error":
		msg := parsed.Get("message").String()
		if msg == "" {
			msg = parsed.Get("error").String()
		}
		if msg == "" {
			msg = "stream error"
		}
		return Event{Kind: KindError, Message: msg}, true
	default:
		log.Warn().Str("type", parsed.Get("type").String()).Msg("dropping stream frame with unknown type")
		return Event{}, false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
