// Package httpmock is a scripted provider server for tests. It simulates
// the chat and model-catalog endpoints of each shipped dialect, replays
// per-path status sequences (503, 503, 200, ...), injects Retry-After
// headers, and captures requests for assertions.
package httpmock

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Response is one scripted reply.
type Response struct {
	// Status is the HTTP status code; zero means 200
	Status int

	// Body is written verbatim
	Body string

	// Headers are set before the status is written
	Headers map[string]string
}

// Captured is one recorded request.
type Captured struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Server replays scripted responses per path. When a path's script runs
// out, its last response repeats; a path with no script gets 404.
type Server struct {
	server *httptest.Server

	mu       sync.Mutex
	scripts  map[string][]Response
	position map[string]int
	captured []Captured
}

// New starts a mock server. Callers own Close.
func New() *Server {
	s := &Server{
		scripts:  make(map[string][]Response),
		position: make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// Script installs the response sequence for a path, replacing any
// previous script and resetting its position.
func (s *Server) Script(path string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[path] = responses
	s.position[path] = 0
}

// Requests returns a copy of every captured request, in arrival order.
func (s *Server) Requests() []Captured {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Captured(nil), s.captured...)
}

// RequestCount returns how many requests hit a path; an empty path counts
// everything.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		return len(s.captured)
	}
	n := 0
	for _, c := range s.captured {
		if c.Path == path {
			n++
		}
	}
	return n
}

// Reset drops captured requests and rewinds every script.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captured = nil
	for path := range s.position {
		s.position[path] = 0
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.captured = append(s.captured, Captured{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})

	script, ok := s.scripts[r.URL.Path]
	if !ok || len(script) == 0 {
		s.mu.Unlock()
		http.NotFound(w, r)
		return
	}

	pos := s.position[r.URL.Path]
	if pos >= len(script) {
		pos = len(script) - 1
	} else {
		s.position[r.URL.Path] = pos + 1
	}
	resp := script[pos]
	s.mu.Unlock()

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// OK wraps a body in a 200 response.
func OK(body string) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// Unavailable is a bare 503.
func Unavailable() Response {
	return Response{Status: http.StatusServiceUnavailable, Body: `{"error":"overloaded"}`}
}

// RateLimited is a 429 carrying a Retry-After hint in seconds.
func RateLimited(retryAfterSeconds int) Response {
	return Response{
		Status:  http.StatusTooManyRequests,
		Body:    `{"error":"rate limit exceeded"}`,
		Headers: map[string]string{"Retry-After": fmt.Sprintf("%d", retryAfterSeconds)},
	}
}

// OpenAIChat is a canned OpenAI-shaped chat completion.
func OpenAIChat(content string) Response {
	return OK(fmt.Sprintf(
		`{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":%q}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`,
		content))
}

// AnthropicChat is a canned Anthropic-shaped messages response.
func AnthropicChat(content string) Response {
	return OK(fmt.Sprintf(
		`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":%q}],"stop_reason":"end_turn"}`,
		content))
}

// OllamaChat is a canned Ollama /api/generate response.
func OllamaChat(content string) Response {
	return OK(fmt.Sprintf(`{"model":"llama3","response":%q,"done":true}`, content))
}

// OpenAIModels is a canned OpenAI-shaped model catalog.
func OpenAIModels(ids ...string) Response {
	entries := ""
	for i, id := range ids {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"id":%q,"object":"model"}`, id)
	}
	return OK(`{"object":"list","data":[` + entries + `]}`)
}
