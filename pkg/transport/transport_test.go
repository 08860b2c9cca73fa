package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/chat"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// ============================================================================
// Success Path Tests
// ============================================================================

func TestPostJSONSuccess(t *testing.T) {
	var gotBody map[string]interface{}
	var gotContentType, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(t)
	resp, err := c.PostJSON(context.Background(), server.URL, []byte(`{"model":"m"}`), map[string]string{
		"Authorization": "Bearer k",
	})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}

	if resp.Status != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.Status)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
	if gotAuth != "Bearer k" {
		t.Errorf("auth header not forwarded: %q", gotAuth)
	}
	if gotBody["model"] != "m" {
		t.Errorf("request body not delivered: %v", gotBody)
	}
}

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	c := newTestClient(t)
	resp, err := c.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != `{"data":[]}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}

// ============================================================================
// Status Classification Tests
// ============================================================================

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   chat.Kind
	}{
		{"unauthorized", 401, chat.KindAuth},
		{"forbidden", 403, chat.KindAuth},
		{"rate limited", 429, chat.KindRateLimited},
		{"bad request", 400, chat.KindBadRequest},
		{"not found", 404, chat.KindBadRequest},
		{"unprocessable", 422, chat.KindBadRequest},
		{"teapot", 418, chat.KindBadRequest},
		{"internal error", 500, chat.KindTransient},
		{"bad gateway", 502, chat.KindTransient},
		{"unavailable", 503, chat.KindTransient},
		{"gateway timeout", 504, chat.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"detail"}`))
			}))
			defer server.Close()

			c := newTestClient(t)
			_, err := c.PostJSON(context.Background(), server.URL, []byte(`{}`), nil)

			cerr, ok := chat.AsError(err)
			if !ok {
				t.Fatalf("expected *chat.Error, got %T: %v", err, err)
			}
			if cerr.Kind != tt.want {
				t.Errorf("status %d: expected kind %s, got %s", tt.status, tt.want, cerr.Kind)
			}
			if cerr.HTTPStatus != tt.status {
				t.Errorf("expected status %d on error, got %d", tt.status, cerr.HTTPStatus)
			}
			if !strings.Contains(cerr.Message, "detail") {
				t.Errorf("body snippet missing from message: %q", cerr.Message)
			}
		})
	}
}

func TestRetryAfterCaptured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t)
	_, err := c.PostJSON(context.Background(), server.URL, []byte(`{}`), nil)

	cerr, ok := chat.AsError(err)
	if !ok {
		t.Fatalf("expected *chat.Error, got %v", err)
	}
	if cerr.RetryAfter != 7*time.Second {
		t.Errorf("expected 7s retry-after, got %v", cerr.RetryAfter)
	}
}

// ============================================================================
// Transport Failure Tests
// ============================================================================

func TestConnectionRefusedIsTransient(t *testing.T) {
	c := newTestClient(t)

	// Reserved port with nothing listening.
	_, err := c.PostJSON(context.Background(), "http://127.0.0.1:1", []byte(`{}`), nil)
	if !chat.IsKind(err, chat.KindTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and cancels
		// r.Context() when the client goes away.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.PostJSON(ctx, server.URL, []byte(`{}`), nil)
	if !chat.IsKind(err, chat.KindCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
}

func TestRedirectsBounded(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL, http.StatusTemporaryRedirect)
	}))
	defer server.Close()

	c := newTestClient(t)
	_, err := c.PostJSON(context.Background(), server.URL, []byte(`{}`), nil)
	if !chat.IsKind(err, chat.KindTransient) {
		t.Fatalf("expected transient after redirect limit, got %v", err)
	}
}

func TestResponseBodyBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	c, err := New(Config{MaxResponseBytes: 1024})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := c.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("expected capped body of 1024 bytes, got %d", len(resp.Body))
	}
}

// ============================================================================
// Retry-After Parsing Tests
// ============================================================================

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "7", 7 * time.Second},
		{"zero seconds", "0", 0},
		{"negative", "-3", 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRetryAfter(tt.value); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	got := ParseRetryAfter(future)
	if got < 25*time.Second || got > 30*time.Second {
		t.Errorf("expected ~30s from HTTP date, got %v", got)
	}

	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if got := ParseRetryAfter(past); got != 0 {
		t.Errorf("expected 0 for past date, got %v", got)
	}
}
