package sse

import (
	"io"
	"strings"
	"testing"
)

// drain reads events until EOF and returns them.
func drain(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoderChunkSequence(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"Hel\"}\n\n" +
		"data: {\"type\":\"chunk\",\"content\":\"lo\"}\n\n" +
		"data: {\"type\":\"done\",\"tokens_used\":5,\"tokens_remaining\":95,\"credits_used\":1,\"credits_remaining\":9}\n\n"

	events := drain(t, NewDecoder(strings.NewReader(stream)))

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].Kind != KindChunk || events[0].Content != "Hel" {
		t.Errorf("Expected chunk 'Hel', got %v %q", events[0].Kind, events[0].Content)
	}
	if events[1].Kind != KindChunk || events[1].Content != "lo" {
		t.Errorf("Expected chunk 'lo', got %v %q", events[1].Kind, events[1].Content)
	}
	done := events[2]
	if done.Kind != KindDone {
		t.Fatalf("Expected done event, got %v", done.Kind)
	}
	if done.TokensUsed != 5 || done.TokensRemaining != 95 {
		t.Errorf("Expected tokens 5/95, got %d/%d", done.TokensUsed, done.TokensRemaining)
	}
	if done.CreditsUsed != 1 || done.CreditsRemaining != 9 {
		t.Errorf("Expected credits 1/9, got %d/%d", done.CreditsUsed, done.CreditsRemaining)
	}
	if !done.Terminal() {
		t.Error("Expected done event to be terminal")
	}
}

// chunkedReader returns at most n bytes per Read call, simulating
// arbitrary network read boundaries.
type chunkedReader struct {
	data []byte
	n    int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.n
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestDecoderReadBoundaryIndependence(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"abc\"}\n\n" +
		"data: {\"type\":\"chunk\",\"content\":\"def\"}\n\n" +
		"data: {\"type\":\"error\",\"error\":\"boom\"}\n\n"

	want := drain(t, NewDecoder(strings.NewReader(stream)))
	if len(want) != 3 {
		t.Fatalf("Expected 3 events from reference decode, got %d", len(want))
	}

	for _, size := range []int{1, 2, 3, 7, 16} {
		got := drain(t, NewDecoder(&chunkedReader{data: []byte(stream), n: size}))
		if len(got) != len(want) {
			t.Fatalf("Read size %d: expected %d events, got %d", size, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Read size %d: event %d = %+v, want %+v", size, i, got[i], want[i])
			}
		}
	}
}

func TestDecoderCRLFFrames(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"hi\"}\r\n\r\n" +
		"data: {\"type\":\"done\"}\r\n\r\n"

	events := drain(t, NewDecoder(strings.NewReader(stream)))

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Content != "hi" {
		t.Errorf("Expected content 'hi', got %q", events[0].Content)
	}
	if events[1].Kind != KindDone {
		t.Errorf("Expected done, got %v", events[1].Kind)
	}
}

func TestDecoderSkipsMalformedFrames(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"a\"}\n\n" +
		"data: {not json at all\n\n" +
		"data: {\"type\":\"telemetry\",\"foo\":1}\n\n" +
		"data: {\"type\":\"chunk\",\"content\":\"b\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	events := drain(t, NewDecoder(strings.NewReader(stream)))

	if len(events) != 3 {
		t.Fatalf("Expected 3 events (malformed and unknown skipped), got %d", len(events))
	}
	if events[0].Content != "a" || events[1].Content != "b" {
		t.Errorf("Expected chunks a,b, got %q,%q", events[0].Content, events[1].Content)
	}
	if events[2].Kind != KindDone {
		t.Errorf("Expected done, got %v", events[2].Kind)
	}
}

func TestDecoderSkipsFramesWithoutData(t *testing.T) {
	stream := ": keepalive\n\n" +
		"event: ping\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	events := drain(t, NewDecoder(strings.NewReader(stream)))

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Kind != KindDone {
		t.Errorf("Expected done, got %v", events[0].Kind)
	}
}

func TestDecoderTrailingFrameWithoutDelimiter(t *testing.T) {
	// Stream cut off right after the payload, before the blank line.
	stream := "data: {\"type\":\"chunk\",\"content\":\"tail\"}"

	events := drain(t, NewDecoder(strings.NewReader(stream)))

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Content != "tail" {
		t.Errorf("Expected content 'tail', got %q", events[0].Content)
	}
}

func TestDecoderErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"message field", `{"type":"error","error":"E1","message":"rate limited"}`, "rate limited"},
		{"error field", `{"type":"error","error":"quota exceeded"}`, "quota exceeded"},
		{"no fields", `{"type":"error"}`, "stream error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := drain(t, NewDecoder(strings.NewReader("data: "+tt.payload+"\n\n")))
			if len(events) != 1 {
				t.Fatalf("Expected 1 event, got %d", len(events))
			}
			if events[0].Kind != KindError {
				t.Fatalf("Expected error event, got %v", events[0].Kind)
			}
			if events[0].Message != tt.want {
				t.Errorf("Expected message %q, got %q", tt.want, events[0].Message)
			}
		})
	}
}

func TestDecoderEmptyStream(t *testing.T) {
	_, err := NewDecoder(strings.NewReader("")).Next()
	if err != io.EOF {
		t.Fatalf("Expected io.EOF, got %v", err)
	}
}

func TestDecoderMultiDataLineFrame(t *testing.T) {
	// Multiple data lines within one frame join with a newline before
	// parsing; the payload here is split mid-JSON.
	stream := "data: {\"type\":\"chunk\",\ndata: \"content\":\"joined\"}\n\n"

	events := drain(t, NewDecoder(strings.NewReader(stream)))

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Content != "joined" {
		t.Errorf("Expected content 'joined', got %q", events[0].Content)
	}
}
