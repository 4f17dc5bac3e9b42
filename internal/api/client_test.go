package api

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/tls-client/bandwidth"
	"github.com/tidwall/gjson"

	"github.com/rafael/multichat/internal/apierrors"
)

// mockHTTPClient implements tls_client.HttpClient for testing
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) GetCookies(u *url.URL) []*http.Cookie          { return nil }
func (m *mockHTTPClient) SetCookies(u *url.URL, cookies []*http.Cookie) {}
func (m *mockHTTPClient) SetCookieJar(jar http.CookieJar)               {}
func (m *mockHTTPClient) GetCookieJar() http.CookieJar                  { return nil }
func (m *mockHTTPClient) SetProxy(proxyUrl string) error                { return nil }
func (m *mockHTTPClient) GetProxy() string                              { return "" }
func (m *mockHTTPClient) SetFollowRedirect(followRedirect bool)         {}
func (m *mockHTTPClient) GetFollowRedirect() bool                       { return false }
func (m *mockHTTPClient) CloseIdleConnections()                         {}
func (m *mockHTTPClient) Get(url string) (*http.Response, error)        { return nil, nil }
func (m *mockHTTPClient) Head(url string) (*http.Response, error)       { return nil, nil }
func (m *mockHTTPClient) Post(url, contentType string, body io.Reader) (*http.Response, error) {
	return nil, nil
}
func (m *mockHTTPClient) GetBandwidthTracker() bandwidth.BandwidthTracker { return nil }

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return nil, nil
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(t *testing.T, doFunc func(req *http.Request) (*http.Response, error)) *Client {
	t.Helper()
	client, err := NewClient("http://localhost:8000/", StaticToken("tok-123"),
		WithHTTPClient(&mockHTTPClient{doFunc: doFunc}))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", StaticToken("t")); err == nil {
		t.Error("Expected error for empty base URL")
	}
	if _, err := NewClient("http://x", nil); err == nil {
		t.Error("Expected error for nil credential source")
	}
}

func TestOpenStreamRequestShape(t *testing.T) {
	var captured *http.Request
	var capturedBody string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		data, _ := io.ReadAll(req.Body)
		capturedBody = string(data)
		return respond(200, "data: {\"type\":\"done\"}\n\n"), nil
	})

	body, err := client.OpenStream(context.Background(), StreamRequest{
		Prompt:         "Hello",
		ModelID:        "m1",
		ConversationID: "conv-1",
	})
	if err != nil {
		t.Fatalf("OpenStream failed: %v", err)
	}
	defer body.Close()

	if captured.Method != "POST" {
		t.Errorf("Expected POST, got %s", captured.Method)
	}
	if captured.URL.Path != "/stream/chat" {
		t.Errorf("Expected path /stream/chat, got %s", captured.URL.Path)
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer tok-123" {
		t.Errorf("Expected bearer token header, got %q", got)
	}
	if got := captured.Header.Get("Accept"); got != "text/event-stream" {
		t.Errorf("Expected event-stream accept header, got %q", got)
	}
	if got := captured.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON content type, got %q", got)
	}

	parsed := gjson.Parse(capturedBody)
	if parsed.Get("prompt").String() != "Hello" {
		t.Errorf("Expected prompt 'Hello', body %s", capturedBody)
	}
	if parsed.Get("model").String() != "m1" {
		t.Errorf("Expected model 'm1', body %s", capturedBody)
	}
	if parsed.Get("conversation_id").String() != "conv-1" {
		t.Errorf("Expected conversation_id 'conv-1', body %s", capturedBody)
	}
	// A zero output limit falls back to the server-documented default;
	// temperature goes out verbatim, explicit zero included.
	if parsed.Get("max_tokens").Int() != 1000 {
		t.Errorf("Expected default max_tokens 1000, body %s", capturedBody)
	}
	if !parsed.Get("temperature").Exists() || parsed.Get("temperature").Float() != 0 {
		t.Errorf("Expected explicit zero temperature, body %s", capturedBody)
	}
}

func TestOpenStreamNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(402, `{"detail":"insufficient credits"}`), nil
	})

	_, err := client.OpenStream(context.Background(), StreamRequest{Prompt: "x", ModelID: "m1"})
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 402 {
		t.Errorf("Expected status 402, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "insufficient credits" {
		t.Errorf("Expected detail extracted, got %q", apiErr.Message)
	}
}

func TestOpenStreamTransportError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := client.OpenStream(context.Background(), StreamRequest{Prompt: "x", ModelID: "m1"})
	var netErr *apierrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
}

func TestOpenStreamMissingToken(t *testing.T) {
	client, err := NewClient("http://localhost:8000", StaticToken(""),
		WithHTTPClient(&mockHTTPClient{}))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.OpenStream(context.Background(), StreamRequest{Prompt: "x", ModelID: "m1"})
	if !errors.Is(err, apierrors.ErrNoToken) {
		t.Fatalf("Expected ErrNoToken, got %v", err)
	}
}

func TestFetchMessagesBareArray(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return respond(200, `[
			{"id":"u1","role":"user","content":"hi","created_at":"2026-08-01T12:00:00"},
			{"id":"a1","role":"assistant","content":"hello","model":"m1","tokens_used":4,"created_at":"2026-08-01T12:00:01.123456"}
		]`), nil
	})

	messages, err := client.FetchMessages(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}

	if captured.URL.Path != "/conversations/conv-1/messages" {
		t.Errorf("Unexpected path %s", captured.URL.Path)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content != "hi" {
		t.Errorf("Unexpected first message %+v", messages[0])
	}
	if messages[1].Model != "m1" || messages[1].TokensUsed != 4 {
		t.Errorf("Unexpected second message %+v", messages[1])
	}
	if messages[1].CreatedAt.IsZero() {
		t.Error("Expected microsecond timestamp to parse")
	}
}

func TestFetchMessagesWrappedObject(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(200, `{"messages":[{"id":"u1","role":"user","content":"hi"}]}`), nil
	})

	messages, err := client.FetchMessages(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
}

func TestFetchMessagesUnparseable(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(200, `{"unexpected":true}`), nil
	})

	_, err := client.FetchMessages(context.Background(), "conv-1")
	var parseErr *apierrors.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestFetchMessagesEmptyID(t *testing.T) {
	client := newTestClient(t, nil)
	if _, err := client.FetchMessages(context.Background(), ""); err == nil {
		t.Fatal("Expected error for empty conversation id")
	}
}

func TestListConversations(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return respond(200, `[
			{"id":"c2","title":"Newest","created_at":"2026-08-02T09:00:00Z"},
			{"id":"c1","title":"Oldest","created_at":"2026-08-01T09:00:00Z"}
		]`), nil
	})

	conversations, err := client.ListConversations(context.Background())
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}

	if captured.URL.Path != "/conversations/" {
		t.Errorf("Unexpected path %s", captured.URL.Path)
	}
	if len(conversations) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].ID != "c2" || conversations[0].Title != "Newest" {
		t.Errorf("Unexpected first conversation %+v", conversations[0])
	}
}

func TestListConversationsNonSuccess(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return respond(401, `{"detail":"invalid token"}`), nil
	})

	_, err := client.ListConversations(context.Background())
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 401 || apiErr.Message != "invalid token" {
		t.Errorf("Unexpected error %+v", apiErr)
	}
}

func TestParseTimeLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-08-01T12:00:00Z", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		{"2026-08-01T12:00:00", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		{"2026-08-01T12:00:00.500000", time.Date(2026, 8, 1, 12, 0, 0, 500000000, time.UTC)},
	}
	for _, tt := range tests {
		if got := parseTime(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !parseTime("garbage").IsZero() {
		t.Error("Expected zero time for unparseable input")
	}
}

func TestTrimTrailingSlash(t *testing.T) {
	if got := trimTrailingSlash("http://x///"); got != "http://x" {
		t.Errorf("Expected trimmed URL, got %q", got)
	}
	if got := trimTrailingSlash("http://x"); got != "http://x" {
		t.Errorf("Expected unchanged URL, got %q", got)
	}
}
