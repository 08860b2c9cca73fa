package jsonpath

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad test document: %v", err)
	}
	return doc
}

func TestCompileValidation(t *testing.T) {
	valid := []string{
		"",
		"response",
		"choices[0].message.content",
		"content[0].text",
		"models",
		"data[12].id",
		"_private.field_1",
	}
	for _, src := range valid {
		if _, err := Compile(src); err != nil {
			t.Errorf("Compile(%q) failed: %v", src, err)
		}
	}

	invalid := []string{
		".leading.dot",
		"choices[].message",
		"choices[0",
		"choices[a]",
		"a..b",
		"a|b",
		"a.b; now(1)",
		"1abc",
		"a[-1]",
	}
	for _, src := range invalid {
		if _, err := Compile(src); err == nil {
			t.Errorf("Compile(%q) succeeded, expected error", src)
		}
	}
}

func TestEvalString(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		doc      string
		expected string
		found    bool
	}{
		{
			name:     "openai completion",
			path:     "choices[0].message.content",
			doc:      `{"choices":[{"message":{"content":"hello"}}]}`,
			expected: "hello",
			found:    true,
		},
		{
			name:     "anthropic completion",
			path:     "content[0].text",
			doc:      `{"content":[{"type":"text","text":"hi there"}]}`,
			expected: "hi there",
			found:    true,
		},
		{
			name:     "ollama completion",
			path:     "response",
			doc:      `{"model":"llama3","response":"ok","done":true}`,
			expected: "ok",
			found:    true,
		},
		{
			name:  "missing field",
			path:  "choices[0].message.content",
			doc:   `{"choices":[{"message":{}}]}`,
			found: false,
		},
		{
			name:  "null value",
			path:  "response",
			doc:   `{"response":null}`,
			found: false,
		},
		{
			name:  "empty string",
			path:  "response",
			doc:   `{"response":""}`,
			found: false,
		},
		{
			name:  "index out of range",
			path:  "choices[3].message.content",
			doc:   `{"choices":[{"message":{"content":"x"}}]}`,
			found: false,
		},
		{
			name:  "wrong type",
			path:  "choices",
			doc:   `{"choices":[{"message":{"content":"x"}}]}`,
			found: false,
		},
		{
			name:  "navigating through a scalar",
			path:  "response.inner",
			doc:   `{"response":"plain"}`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.path)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}

			got, found := p.EvalString(decode(t, tt.doc))
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEvalList(t *testing.T) {
	p := MustCompile("data")
	doc := decode(t, `{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`)

	list, ok := p.EvalList(doc)
	if !ok {
		t.Fatal("expected list")
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}

	first, ok := list[0].(map[string]interface{})
	if !ok {
		t.Fatal("expected object entries")
	}
	if first["id"] != "gpt-4o" {
		t.Errorf("expected first id gpt-4o, got %v", first["id"])
	}

	// Non-array target.
	if _, ok := MustCompile("data[0]").EvalList(doc); ok {
		t.Error("expected failure for non-array value")
	}
}

func TestEmptyPathSelectsDocument(t *testing.T) {
	p := MustCompile("")
	doc := decode(t, `[{"name":"llama3"}]`)

	list, ok := p.EvalList(doc)
	if !ok || len(list) != 1 {
		t.Errorf("expected identity selection of a bare array, ok=%v len=%d", ok, len(list))
	}
}

func TestEvalNumeric(t *testing.T) {
	p := MustCompile("models[0].inputTokenLimit")
	doc := decode(t, `{"models":[{"inputTokenLimit":1048576}]}`)

	v, ok := p.Eval(doc)
	if !ok {
		t.Fatal("expected numeric value")
	}
	// encoding/json decodes numbers as float64; gojq may normalize to int.
	switch n := v.(type) {
	case float64:
		if n != 1048576 {
			t.Errorf("expected 1048576, got %v", n)
		}
	case int:
		if n != 1048576 {
			t.Errorf("expected 1048576, got %v", n)
		}
	default:
		t.Errorf("unexpected numeric type %T", v)
	}
}
