package secrets

import (
	"sort"
	"sync"
)

// Source resolves a provider name to an API key. Implementations must be
// safe for concurrent use. Provider names are already normalized
// (lowercase, trimmed) by the time a Source sees them.
type Source interface {
	// Lookup returns the key for a provider and whether one was found.
	Lookup(provider string) (Secret, bool)

	// Name identifies the source in logs (static, env, dir, chain).
	Name() string
}

// Static is the in-memory key store the registry owns. It is the only
// writable source; Configure calls feed it when a partial config carries
// an api key.
type Static struct {
	mu   sync.RWMutex
	keys map[string]Secret
}

// NewStatic creates an empty store.
func NewStatic() *Static {
	return &Static{keys: make(map[string]Secret)}
}

// Lookup returns the stored key for a provider.
func (s *Static) Lookup(provider string) (Secret, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[provider]
	return key, ok
}

// Set stores or replaces a provider's key. Empty keys are ignored.
func (s *Static) Set(provider string, key Secret) {
	if key.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[provider] = key
}

// Delete removes a provider's key.
func (s *Static) Delete(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, provider)
}

// Providers returns the provider names with stored keys, sorted. Values
// are never listed.
func (s *Static) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every key. Used by registry Reset in tests.
func (s *Static) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]Secret)
}

// Name identifies the source.
func (s *Static) Name() string {
	return "static"
}
