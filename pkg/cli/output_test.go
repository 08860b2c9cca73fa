package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
)

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format("42 tokens")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(output) != "42 tokens\n" {
		t.Errorf("Format() = %q", string(output))
	}

	buf := &bytes.Buffer{}
	if err := formatter.FormatTo(buf, "42 tokens"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "42 tokens\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	report := struct {
		Provider string `json:"provider"`
		Healthy  bool   `json:"healthy"`
	}{Provider: "openai", Healthy: true}

	for _, indent := range []bool{false, true} {
		t.Run(fmt.Sprintf("indent=%v", indent), func(t *testing.T) {
			formatter := &JSONFormatter{Indent: indent}
			output, err := formatter.Format(report)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			var decoded map[string]interface{}
			if err := json.Unmarshal(output, &decoded); err != nil {
				t.Fatalf("Format() produced invalid JSON: %v", err)
			}
			if decoded["provider"] != "openai" {
				t.Errorf("provider = %v", decoded["provider"])
			}
		})
	}
}

func TestJSONFormatterWriter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	buf := &bytes.Buffer{}

	if err := formatter.FormatTo(buf, map[string]int{"estimated_tokens": 42}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("FormatTo() produced invalid JSON: %v", err)
	}
	if decoded["estimated_tokens"] != 42 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		got := fmt.Sprintf("%T", NewFormatter(tt.format))
		if got != tt.want {
			t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
		}
	}
}
