package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// Secret Redaction Tests
// ============================================================================

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-proj-very-secret-1234")

	t.Run("fmt verbs", func(t *testing.T) {
		for _, rendered := range []string{
			fmt.Sprintf("%s", s),
			fmt.Sprintf("%v", s),
			fmt.Sprintf("%+v", s),
			fmt.Sprintf("%#v", s),
		} {
			if strings.Contains(rendered, "sk-proj") {
				t.Errorf("secret leaked through formatting: %q", rendered)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(struct {
			Key Secret `json:"key"`
		}{Key: s})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if strings.Contains(string(data), "sk-proj") {
			t.Errorf("secret leaked through JSON: %s", data)
		}
		if !strings.Contains(string(data), Redacted) {
			t.Errorf("expected redaction marker in JSON, got %s", data)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(map[string]Secret{"key": s})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if strings.Contains(string(data), "sk-proj") {
			t.Errorf("secret leaked through YAML: %s", data)
		}
	})

	t.Run("raw value still reachable", func(t *testing.T) {
		if string(s) != "sk-proj-very-secret-1234" {
			t.Error("explicit conversion must return the raw value")
		}
	})

	t.Run("empty secret renders empty", func(t *testing.T) {
		if Secret("").String() != "" {
			t.Error("empty secret should render as empty string, not the marker")
		}
	})
}

// ============================================================================
// Static Store Tests
// ============================================================================

func TestStaticStore(t *testing.T) {
	store := NewStatic()

	if _, ok := store.Lookup("openai"); ok {
		t.Error("expected miss on empty store")
	}

	store.Set("openai", "sk-123")
	key, ok := store.Lookup("openai")
	if !ok || string(key) != "sk-123" {
		t.Errorf("expected stored key, got %q ok=%v", string(key), ok)
	}

	// Empty keys are not stored.
	store.Set("anthropic", "")
	if _, ok := store.Lookup("anthropic"); ok {
		t.Error("expected empty key to be ignored")
	}

	store.Set("ollama", "tok")
	names := store.Providers()
	if len(names) != 2 || names[0] != "ollama" || names[1] != "openai" {
		t.Errorf("expected sorted provider names, got %v", names)
	}

	store.Delete("openai")
	if _, ok := store.Lookup("openai"); ok {
		t.Error("expected delete to remove the key")
	}

	store.Clear()
	if len(store.Providers()) != 0 {
		t.Error("expected clear to empty the store")
	}
}

// ============================================================================
// Env Source Tests
// ============================================================================

func TestEnvSource(t *testing.T) {
	t.Setenv("GANYMEDE_API_KEY_OPENAI", "sk-from-env")
	t.Setenv("GANYMEDE_API_KEY_MY_GATEWAY", "gw-key")

	env := NewEnv("")

	key, ok := env.Lookup("openai")
	if !ok || string(key) != "sk-from-env" {
		t.Errorf("expected env key, got %q ok=%v", string(key), ok)
	}

	// Hyphens map to underscores.
	key, ok = env.Lookup("my-gateway")
	if !ok || string(key) != "gw-key" {
		t.Errorf("expected hyphen mapping, got %q ok=%v", string(key), ok)
	}

	if _, ok := env.Lookup("missing"); ok {
		t.Error("expected miss for unset variable")
	}
}

func TestLookupEnvList(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "second")
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", "third")

	// GEMINI_API_KEY unset: the next name in order wins.
	key, ok := LookupEnvList([]string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENERATIVE_AI_API_KEY"})
	if !ok || string(key) != "second" {
		t.Errorf("expected ordered fallback to pick %q, got %q", "second", string(key))
	}

	if _, ok := LookupEnvList([]string{"UNSET_A", "UNSET_B"}); ok {
		t.Error("expected miss when no variable is set")
	}
	if _, ok := LookupEnvList(nil); ok {
		t.Error("expected miss for empty name list")
	}
}

// ============================================================================
// Dir Source Tests
// ============================================================================

func TestDirSource(t *testing.T) {
	base := t.TempDir()

	writeKey := func(name, value string, perm os.FileMode) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(base, name), []byte(value), perm); err != nil {
			t.Fatalf("write key file: %v", err)
		}
	}

	writeKey("openai", "sk-dir-key\n", 0o600)
	writeKey("anthropic", "ak-123", 0o644)

	dir, err := NewDir(base)
	if err != nil {
		t.Fatalf("NewDir failed: %v", err)
	}

	t.Run("reads and trims", func(t *testing.T) {
		key, ok := dir.Lookup("openai")
		if !ok || string(key) != "sk-dir-key" {
			t.Errorf("expected trimmed key, got %q ok=%v", string(key), ok)
		}
	})

	t.Run("rejects loose permissions", func(t *testing.T) {
		if _, ok := dir.Lookup("anthropic"); ok {
			t.Error("expected 0644 key file to be refused")
		}
	})

	t.Run("miss for absent provider", func(t *testing.T) {
		if _, ok := dir.Lookup("nope"); ok {
			t.Error("expected miss")
		}
	})

	t.Run("refresh rereads", func(t *testing.T) {
		writeKey("openai", "sk-rotated", 0o600)

		// Cached value until refresh.
		key, _ := dir.Lookup("openai")
		if string(key) != "sk-dir-key" {
			t.Errorf("expected cached key before refresh, got %q", string(key))
		}

		dir.Refresh()
		key, _ = dir.Lookup("openai")
		if string(key) != "sk-rotated" {
			t.Errorf("expected rotated key after refresh, got %q", string(key))
		}
	})
}

func TestDirSourceRequiresDirectory(t *testing.T) {
	if _, err := NewDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDir(file); err == nil {
		t.Error("expected error for non-directory path")
	}
}

// ============================================================================
// Chain Tests
// ============================================================================

type mapSource struct {
	name string
	keys map[string]Secret
}

func (m mapSource) Lookup(provider string) (Secret, bool) {
	key, ok := m.keys[provider]
	return key, ok
}

func (m mapSource) Name() string { return m.name }

func TestChain(t *testing.T) {
	first := mapSource{name: "first", keys: map[string]Secret{"openai": "from-first"}}
	second := mapSource{name: "second", keys: map[string]Secret{
		"openai":    "from-second",
		"anthropic": "only-second",
	}}

	chain := NewChain(nil, first, second)

	key, ok := chain.Lookup("openai")
	if !ok || string(key) != "from-first" {
		t.Errorf("expected first source to win, got %q", string(key))
	}

	key, ok = chain.Lookup("anthropic")
	if !ok || string(key) != "only-second" {
		t.Errorf("expected fallback to second source, got %q", string(key))
	}

	if _, ok := chain.Lookup("google"); ok {
		t.Error("expected miss across all sources")
	}
}
